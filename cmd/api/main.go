package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talent_intake_backend/internal/adapters/storage"
	"talent_intake_backend/internal/auth"
	"talent_intake_backend/internal/bulkresend"
	"talent_intake_backend/internal/email"
	"talent_intake_backend/internal/events"
	apphttp "talent_intake_backend/internal/http"
	"talent_intake_backend/internal/http/router"
	"talent_intake_backend/internal/leads"
	leadrepo "talent_intake_backend/internal/leads/repository"
	"talent_intake_backend/internal/notification"
	"talent_intake_backend/internal/scheduler"
	"talent_intake_backend/migrations"
	"talent_intake_backend/platform/config"
	"talent_intake_backend/platform/db"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.NewWithFile(cfg.Env, cfg)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	val := validator.New()

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure leads bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketLeads())
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketLeads())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "leadsBucket", cfg.GetMinioBucketLeads())

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadRepo := leadrepo.New(pool)

	notificationModule := notification.New(pool, sender, leadRepo, cfg, log)
	notificationModule.RegisterHandlers(eventBus)
	closeQueue := initDeliveryQueue(cfg, notificationModule, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	authModule := auth.NewModule(cfg, val, log)
	leadsModule := leads.NewModule(leadRepo, storageSvc, notificationModule, eventBus, val, cfg, log)
	bulkResendModule := bulkresend.NewModule(leadRepo, notificationModule.EmailChannel(), eventBus, val, cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			leadsModule,
			bulkResendModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}
	if err := bulkResendModule.Shutdown(shutdownCtx); err != nil {
		log.Warn("bulk resend job did not stop in time", "error", err)
	}
	if err := notificationModule.Close(shutdownCtx); err != nil {
		log.Warn("in-process deliveries did not drain in time", "error", err)
	}
	log.Info("server stopped")
}

// initDeliveryQueue routes deliveries through asynq when Redis is configured.
// Without Redis the notification module keeps its in-process queue.
func initDeliveryQueue(cfg config.SchedulerConfig, notif *notification.Module, log *logger.Logger) func() {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; deliveries run in-process")
		return nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize delivery queue client", "error", err)
		return nil
	}
	notif.SetQueue(client)
	log.Info("delivery queue initialized", "queue", cfg.GetAsynqQueueName())

	return func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
