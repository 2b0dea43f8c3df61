// Package bulkresend re-sends the operator notification email for a set of
// leads, one at a time with a fixed pause between sends.
package bulkresend

import (
	"fmt"
	"sync"
	"time"

	"talent_intake_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// State is the lifecycle of a job. A cancelled job still ends in StateCompleted.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// Failure is one lead whose send failed. Failures never stop the job.
type Failure struct {
	LeadID uuid.UUID `json:"leadId"`
	Error  string    `json:"error"`
}

// Snapshot is a consistent copy of a job's state.
type Snapshot struct {
	ID              uuid.UUID   `json:"id"`
	State           State       `json:"state"`
	Total           int         `json:"total"`
	Attempted       int         `json:"attempted"`
	Succeeded       int         `json:"succeeded"`
	Failures        []Failure   `json:"failures"`
	MissingLeadIDs  []uuid.UUID `json:"missingLeadIds,omitempty"`
	Progress        string      `json:"progress,omitempty"`
	Summary         string      `json:"summary,omitempty"`
	CancelRequested bool        `json:"cancelRequested"`
	Cancelled       bool        `json:"cancelled"`
	CreatedAt       time.Time   `json:"createdAt"`
	StartedAt       *time.Time  `json:"startedAt,omitempty"`
	FinishedAt      *time.Time  `json:"finishedAt,omitempty"`
}

// Job is a single bulk resend run. All methods are safe for concurrent use.
type Job struct {
	mu sync.Mutex

	id              uuid.UUID
	leads           []domain.Lead
	missing         []uuid.UUID
	state           State
	attempted       int
	succeeded       int
	failures        []Failure
	progress        string
	summary         string
	cancelRequested bool
	cancelled       bool
	createdAt       time.Time
	startedAt       time.Time
	finishedAt      time.Time

	cancelCh chan struct{}
	doneCh   chan struct{}
}

// NewJob creates a pending job over leads in the given order.
func NewJob(leads []domain.Lead, missing []uuid.UUID, now time.Time) *Job {
	return &Job{
		id:        uuid.New(),
		leads:     leads,
		missing:   missing,
		state:     StatePending,
		failures:  []Failure{},
		createdAt: now,
		cancelCh:  make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

func (j *Job) ID() uuid.UUID { return j.id }

// Total is the number of leads the job will attempt.
func (j *Job) Total() int { return len(j.leads) }

// Done is closed once the job reaches StateCompleted.
func (j *Job) Done() <-chan struct{} { return j.doneCh }

// Active reports whether the job has not completed yet.
func (j *Job) Active() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state != StateCompleted
}

// Cancel asks a pending or running job to stop before its next send. It
// returns false when the job already completed.
func (j *Job) Cancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateCompleted {
		return false
	}
	if !j.cancelRequested {
		j.cancelRequested = true
		close(j.cancelCh)
	}
	return true
}

// CancelRequested reports whether Cancel was called.
func (j *Job) CancelRequested() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelRequested
}

func (j *Job) start(now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StatePending {
		return false
	}
	j.state = StateRunning
	j.startedAt = now
	return true
}

func (j *Job) record(leadID uuid.UUID, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempted++
	if err != nil {
		j.failures = append(j.failures, Failure{LeadID: leadID, Error: err.Error()})
		return
	}
	j.succeeded++
}

func (j *Job) setProgress(n int) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress = fmt.Sprintf("Sending %d of %d", n, len(j.leads))
	return j.progress
}

func (j *Job) complete(now time.Time, cancelled bool) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateCompleted {
		return j.summary
	}
	j.state = StateCompleted
	j.cancelled = cancelled
	j.finishedAt = now
	j.summary = fmt.Sprintf("Successfully sent %d of %d", j.succeeded, len(j.leads))
	close(j.doneCh)
	return j.summary
}

// Snapshot returns a copy of the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := Snapshot{
		ID:              j.id,
		State:           j.state,
		Total:           len(j.leads),
		Attempted:       j.attempted,
		Succeeded:       j.succeeded,
		Failures:        append([]Failure{}, j.failures...),
		MissingLeadIDs:  append([]uuid.UUID(nil), j.missing...),
		Progress:        j.progress,
		Summary:         j.summary,
		CancelRequested: j.cancelRequested,
		Cancelled:       j.cancelled,
		CreatedAt:       j.createdAt,
	}
	if !j.startedAt.IsZero() {
		started := j.startedAt
		s.StartedAt = &started
	}
	if !j.finishedAt.IsZero() {
		finished := j.finishedAt
		s.FinishedAt = &finished
	}
	return s
}
