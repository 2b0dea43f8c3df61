package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"talent_intake_backend/internal/notification"
	"talent_intake_backend/platform/config"
	"talent_intake_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Worker executes delivery tasks. asynq owns the retry schedule; the runner
// owns the delivery row.
type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	exec        notification.Executor
	maxAttempts int
	log         *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, exec notification.Executor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
		Logger: newAsynqLogger(log),
	})

	w := newWorker(exec, maxAttempts(cfg), log)
	w.server = server
	return w, nil
}

func newWorker(exec notification.Executor, maxAttempts int, log *logger.Logger) *Worker {
	w := &Worker{
		mux:         asynq.NewServeMux(),
		exec:        exec,
		maxAttempts: maxAttempts,
		log:         log,
	}
	w.mux.HandleFunc(TaskLeadDelivery, w.handleLeadDelivery)
	return w
}

func (w *Worker) handleLeadDelivery(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadDeliveryPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	deliveryID, err := uuid.Parse(payload.DeliveryID)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.exec.Execute(ctx, deliveryID, w.attempt(ctx))
	if notification.IsPermanent(err) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

// attempt derives the 1-based attempt from the task metadata asynq puts on ctx.
func (w *Worker) attempt(ctx context.Context) notification.Attempt {
	a := notification.Attempt{Number: 1, Max: w.maxAttempts}
	if retried, ok := asynq.GetRetryCount(ctx); ok {
		a.Number = retried + 1
	}
	if maxRetry, ok := asynq.GetMaxRetry(ctx); ok {
		a.Max = maxRetry + 1
	}
	return a
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("delivery worker stopped", "error", err)
	}
}

// asynqLogger routes asynq's internal logging through the service logger.
type asynqLogger struct {
	log *slog.Logger
}

func newAsynqLogger(log *logger.Logger) asynqLogger {
	return asynqLogger{log: log.With("component", "asynq")}
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
