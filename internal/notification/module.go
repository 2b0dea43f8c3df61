// Package notification delivers lead notifications over the email, pixel and
// conversion API channels. Deliveries are recorded in the outbox table and
// executed by a queue so the intake request never waits on a channel.
package notification

import (
	"context"

	"talent_intake_backend/internal/conversion"
	"talent_intake_backend/internal/email"
	"talent_intake_backend/internal/events"
	apphttp "talent_intake_backend/internal/http"
	"talent_intake_backend/internal/leads/domain"
	notifhandler "talent_intake_backend/internal/notification/handler"
	"talent_intake_backend/internal/notification/outbox"
	"talent_intake_backend/platform/config"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleConfig combines the config interfaces the notification module reads.
type ModuleConfig interface {
	config.EmailConfig
	config.ConversionConfig
	config.SchedulerConfig
}

// Module wires the channels, the delivery log and the form endpoints.
type Module struct {
	deliveries   *outbox.Repository
	builder      *conversion.Builder
	client       *conversion.Client
	emailCh      *EmailChannel
	conversionCh *ConversionChannel
	runner       *Runner
	fanOut       *FanOut
	inline       *InlineQueue
	handler      *notifhandler.HTTPHandler
	maxAttempts  int
	log          *logger.Logger
}

// New builds the module with an in-process queue. Call SetQueue to hand
// deliveries to an external queue instead.
func New(pool *pgxpool.Pool, sender email.Sender, leads LeadLoader, cfg ModuleConfig, log *logger.Logger) *Module {
	deliveries := outbox.New(pool)
	builder := conversion.NewBuilder(cfg)
	client := conversion.NewClient(cfg, log)
	emailCh := NewEmailChannel(sender, cfg.GetAdminEmail())
	conversionCh := NewConversionChannel(builder, client)
	runner := NewRunner(deliveries, leads, emailCh, conversionCh, log)

	m := &Module{
		deliveries:   deliveries,
		builder:      builder,
		client:       client,
		emailCh:      emailCh,
		conversionCh: conversionCh,
		runner:       runner,
		maxAttempts:  cfg.GetDeliveryMaxAttempts(),
		handler:      notifhandler.NewHTTPHandler(sender, cfg.GetAdminEmail(), builder, client, log),
		log:          log,
	}
	m.inline = NewInlineQueue(runner, m.maxAttempts, log)
	m.fanOut = NewFanOut(deliveries, m.inline, conversionCh, builder, log)
	return m
}

// SetQueue replaces the in-process queue, e.g. with the asynq client.
func (m *Module) SetQueue(q Queue) {
	if q == nil {
		return
	}
	m.fanOut = NewFanOut(m.deliveries, q, m.conversionCh, m.builder, m.log)
}

// Notify hands lead to the current fan-out, so callers wired before SetQueue
// still reach the external queue.
func (m *Module) Notify(ctx context.Context, lead domain.Lead, opts NotifyOptions) Receipt {
	return m.fanOut.Notify(ctx, lead, opts)
}

// Name returns the module name for logging.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes mounts the form endpoints on /api.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	api := ctx.API.Group("")
	if ctx.PublicRateLimiter != nil {
		api.Use(ctx.PublicRateLimiter.RateLimit())
	}
	m.handler.RegisterRoutes(api)
}

func (m *Module) FanOut() *FanOut                { return m.fanOut }
func (m *Module) Runner() *Runner                { return m.runner }
func (m *Module) EmailChannel() *EmailChannel    { return m.emailCh }
func (m *Module) Deliveries() *outbox.Repository { return m.deliveries }
func (m *Module) Builder() *conversion.Builder   { return m.builder }
func (m *Module) PixelID() string                { return m.client.PixelID() }

// Close drains the in-process queue.
func (m *Module) Close(ctx context.Context) error {
	return m.inline.Close(ctx)
}

// RegisterHandlers subscribes the module to the events it reports on.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.LeadSubmitted{}.EventName(), m)
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), m)
	bus.Subscribe(events.BulkResendCompleted{}.EventName(), m)
}

// Handle implements events.Handler.
func (m *Module) Handle(_ context.Context, event events.Event) error {
	metrics.DomainEvents.WithLabelValues(event.EventName()).Inc()
	switch e := event.(type) {
	case events.LeadSubmitted:
		m.log.Info("lead submitted",
			"leadId", e.LeadID, "eventId", e.EventID, "mediaConverted", e.MediaConverted, "pixelDispatched", e.PixelDispatched,
			"photoHasLocation", e.PhotoHasLocation, "photoCameraModel", e.PhotoCameraModel)
	case events.LeadStatusChanged:
		m.log.Info("lead status changed",
			"leadId", e.LeadID, "from", e.OldStatus, "to", e.NewStatus, "changedBy", e.ChangedBy)
	case events.BulkResendCompleted:
		m.log.Info("bulk resend finished",
			"jobId", e.JobID, "total", e.Total, "attempted", e.Attempted, "succeeded", e.Succeeded, "cancelled", e.Cancelled)
	default:
		m.log.Debug("unhandled event", "event", event.EventName())
	}
	return nil
}
