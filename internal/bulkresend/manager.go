package bulkresend

import (
	"context"
	"sync"
	"time"

	"talent_intake_backend/internal/events"
	"talent_intake_backend/internal/leads/domain"
	"talent_intake_backend/platform/apperr"
	"talent_intake_backend/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrJobActive    = apperr.Conflict("A bulk resend is already running")
	ErrNoJob        = apperr.NotFound("No bulk resend job")
	ErrJobNotActive = apperr.Conflict("No bulk resend is running")
	ErrNoLeads      = apperr.BadRequest("None of the selected leads exist")
)

// LeadLoader resolves lead ids. Unknown ids are simply absent from the result.
type LeadLoader interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Lead, error)
}

// Manager owns at most one active job. A completed job stays readable until
// the next Start replaces it.
type Manager struct {
	mu      sync.Mutex
	current *Job

	leads    LeadLoader
	orch     *Orchestrator
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func NewManager(leads LeadLoader, orch *Orchestrator, eventBus events.Bus, log *logger.Logger) *Manager {
	return &Manager{
		leads:    leads,
		orch:     orch,
		eventBus: eventBus,
		log:      log,
		now:      time.Now,
	}
}

// Start resolves ids and runs the job in the background.
func (m *Manager) Start(ctx context.Context, ids []uuid.UUID) (*Job, error) {
	job, err := m.prepare(ctx, ids)
	if err != nil {
		return nil, err
	}
	go m.run(context.Background(), job)
	return job, nil
}

// Run resolves ids and runs the job on the caller's goroutine. Cancelling
// ctx stops the job before its next send.
func (m *Manager) Run(ctx context.Context, ids []uuid.UUID) (Snapshot, error) {
	job, err := m.prepare(ctx, ids)
	if err != nil {
		return Snapshot{}, err
	}
	return m.run(ctx, job), nil
}

// Current returns the active or last completed job.
func (m *Manager) Current() (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNoJob
	}
	return m.current, nil
}

// Cancel flags the active job. The job stops at its next check.
func (m *Manager) Cancel() (*Job, error) {
	m.mu.Lock()
	job := m.current
	m.mu.Unlock()

	if job == nil || !job.Cancel() {
		return nil, ErrJobNotActive
	}
	m.log.Info("bulk resend cancel requested", "jobId", job.ID())
	return job, nil
}

// Shutdown cancels the active job and waits for it to stop or ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	job, err := m.Cancel()
	if err != nil {
		return nil
	}
	select {
	case <-job.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) prepare(ctx context.Context, ids []uuid.UUID) (*Job, error) {
	ids = uniqueIDs(ids)

	m.mu.Lock()
	busy := m.current != nil && m.current.Active()
	m.mu.Unlock()
	if busy {
		return nil, ErrJobActive
	}

	found, err := m.leads.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load leads", err)
	}

	byID := make(map[uuid.UUID]domain.Lead, len(found))
	for _, lead := range found {
		byID[lead.ID] = lead
	}
	ordered := make([]domain.Lead, 0, len(found))
	var missing []uuid.UUID
	for _, id := range ids {
		lead, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		ordered = append(ordered, lead)
	}
	if len(ordered) == 0 {
		return nil, ErrNoLeads.WithDetails(map[string]any{"missingLeadIds": missing})
	}

	job := NewJob(ordered, missing, m.now().UTC())

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.Active() {
		return nil, ErrJobActive
	}
	m.current = job
	return job, nil
}

func (m *Manager) run(ctx context.Context, job *Job) Snapshot {
	snap := m.orch.Run(ctx, job)
	m.eventBus.Publish(context.Background(), events.BulkResendCompleted{
		BaseEvent: events.NewBaseEvent(),
		JobID:     snap.ID,
		Total:     snap.Total,
		Attempted: snap.Attempted,
		Succeeded: snap.Succeeded,
		Cancelled: snap.Cancelled,
	})
	return snap
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
