package scheduler

import (
	"context"
	"time"

	"talent_intake_backend/internal/notification"
	"talent_intake_backend/internal/notification/outbox"
	"talent_intake_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	dispatchInterval  = 2 * time.Second
	dispatchBatchSize = 50
)

// PendingClaimer hands out deliveries whose enqueue failed.
type PendingClaimer interface {
	ClaimPending(ctx context.Context, limit int) ([]outbox.Record, error)
	MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error
}

// DeliveryDispatcher re-enqueues pending deliveries, e.g. rows written while
// redis was unreachable.
type DeliveryDispatcher struct {
	queue    notification.Queue
	repo     PendingClaimer
	interval time.Duration
	log      *logger.Logger
}

func NewDeliveryDispatcher(queue notification.Queue, repo PendingClaimer, log *logger.Logger) *DeliveryDispatcher {
	return &DeliveryDispatcher{
		queue:    queue,
		repo:     repo,
		interval: dispatchInterval,
		log:      log,
	}
}

func (d *DeliveryDispatcher) Run(ctx context.Context) {
	if d == nil || d.queue == nil || d.repo == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		d.dispatch(ctx)
	}
}

// dispatch enqueues one claimed batch and returns how many were enqueued.
func (d *DeliveryDispatcher) dispatch(ctx context.Context) int {
	records, err := d.repo.ClaimPending(ctx, dispatchBatchSize)
	if err != nil {
		d.log.Warn("delivery claim failed", "error", err)
		return 0
	}

	enqueued := 0
	for _, rec := range records {
		if err := d.queue.EnqueueDelivery(ctx, rec.ID); err != nil {
			msg := err.Error()
			_ = d.repo.MarkPending(ctx, rec.ID, &msg)
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		d.log.Info("pending deliveries enqueued", "count", enqueued)
	}
	return enqueued
}
