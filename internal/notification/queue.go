package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"talent_intake_backend/platform/logger"

	"github.com/google/uuid"
)

// ErrQueueClosed is returned by EnqueueDelivery after Close.
var ErrQueueClosed = errors.New("delivery queue closed")

// InlineQueue executes deliveries in-process with bounded retry. It stands in
// for the asynq queue when no Redis is configured.
type InlineQueue struct {
	exec        Executor
	maxAttempts int
	backoff     func(attempt int) time.Duration
	log         *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewInlineQueue(exec Executor, maxAttempts int, log *logger.Logger) *InlineQueue {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &InlineQueue{
		exec:        exec,
		maxAttempts: maxAttempts,
		backoff:     exponentialBackoff,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// exponentialBackoff waits 2s, 4s, 8s... capped at one minute.
func exponentialBackoff(attempt int) time.Duration {
	d := 2 * time.Second << (attempt - 1)
	if d <= 0 || d > time.Minute {
		return time.Minute
	}
	return d
}

func (q *InlineQueue) EnqueueDelivery(_ context.Context, deliveryID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	q.wg.Add(1)
	go q.run(deliveryID)
	return nil
}

func (q *InlineQueue) run(deliveryID uuid.UUID) {
	defer q.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("delivery panicked", "deliveryId", deliveryID, "panic", r)
		}
	}()

	for n := 1; n <= q.maxAttempts; n++ {
		err := q.exec.Execute(q.ctx, deliveryID, Attempt{Number: n, Max: q.maxAttempts})
		if err == nil || IsPermanent(err) || n == q.maxAttempts {
			return
		}

		timer := time.NewTimer(q.backoff(n))
		select {
		case <-q.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Close stops accepting work and waits for running deliveries until ctx is
// done, after which pending retries are abandoned. Abandoned rows stay
// enqueued in the delivery log.
func (q *InlineQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}

var _ Queue = (*InlineQueue)(nil)
