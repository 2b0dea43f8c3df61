package bulkresend

import (
	"context"
	"time"

	"talent_intake_backend/internal/leads/domain"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/metrics"
)

// Sender sends the operator notification for one lead.
type Sender interface {
	Send(ctx context.Context, lead domain.Lead) error
}

// SleepFunc waits d and reports whether the full pause elapsed. It returns
// false early when ctx is done or cancel is closed.
type SleepFunc func(ctx context.Context, d time.Duration, cancel <-chan struct{}) bool

// Orchestrator runs a job strictly sequentially. It never retries a failed
// send and never pauses after the last lead.
type Orchestrator struct {
	sender Sender
	delay  time.Duration
	sleep  SleepFunc
	now    func() time.Time
	log    *logger.Logger
}

func NewOrchestrator(sender Sender, delay time.Duration, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		sender: sender,
		delay:  delay,
		sleep:  sleep,
		now:    time.Now,
		log:    log,
	}
}

// WithSleep replaces the pause between sends.
func (o *Orchestrator) WithSleep(fn SleepFunc) *Orchestrator {
	o.sleep = fn
	return o
}

// Run executes job to completion or cancellation and returns its final
// snapshot. A job that already left the pending state is returned as is.
func (o *Orchestrator) Run(ctx context.Context, job *Job) Snapshot {
	if !job.start(o.now().UTC()) {
		return job.Snapshot()
	}

	total := job.Total()
	o.log.Info("bulk resend started", "jobId", job.ID(), "total", total, "delay", o.delay.String())

	cancelled := false
	for i, lead := range job.leads {
		if ctx.Err() != nil || job.CancelRequested() {
			cancelled = true
			break
		}

		err := o.sender.Send(ctx, lead)
		job.record(lead.ID, err)
		if err != nil {
			metrics.BulkResendSends.WithLabelValues("failed").Inc()
			o.log.ChannelOutcome("email", lead.ID.String(), "failed", err)
		} else {
			metrics.BulkResendSends.WithLabelValues("succeeded").Inc()
		}

		progress := job.setProgress(i + 1)
		o.log.Info(progress, "jobId", job.ID(), "leadId", lead.ID)

		if i == total-1 {
			break
		}
		if !o.sleep(ctx, o.delay, job.cancelCh) {
			cancelled = true
			break
		}
	}

	summary := job.complete(o.now().UTC(), cancelled)
	o.log.Info(summary, "jobId", job.ID(), "cancelled", cancelled)
	return job.Snapshot()
}

func sleep(ctx context.Context, d time.Duration, cancel <-chan struct{}) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-cancel:
		return false
	}
}
