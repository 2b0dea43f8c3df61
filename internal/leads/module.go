// Package leads provides the application intake bounded context module.
// This file wires the intake pipeline and registers its routes.
package leads

import (
	"talent_intake_backend/internal/adapters/storage"
	"talent_intake_backend/internal/events"
	apphttp "talent_intake_backend/internal/http"
	"talent_intake_backend/internal/leads/handler"
	"talent_intake_backend/internal/leads/repository"
	"talent_intake_backend/internal/leads/service"
	"talent_intake_backend/internal/leads/store"
	"talent_intake_backend/internal/media"
	"talent_intake_backend/internal/notification"
	"talent_intake_backend/platform/config"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/validator"
)

// ModuleConfig combines the config interfaces the leads module reads.
type ModuleConfig interface {
	config.IntakeConfig
	GetMinioBucketLeads() string
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	public  *handler.PublicHandler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates the intake pipeline on top of the notification module's
// channels and delivery log.
func NewModule(repo *repository.Repository, objects storage.ObjectStore, notif *notification.Module, eventBus events.Bus, val *validator.Validator, cfg ModuleConfig, log *logger.Logger) *Module {
	svc := service.New(service.Deps{
		Repo:       repo,
		Store:      store.New(objects, cfg.GetMinioBucketLeads(), repo),
		Normalizer: media.NewNormalizer(cfg, log),
		Notifier:   notif,
		Mailer:     notif.EmailChannel(),
		Deliveries: notif.Deliveries(),
		Validator:  val,
		EventBus:   eventBus,
		PixelID:    notif.PixelID(),
		Config:     cfg,
		Log:        log,
	})

	return &Module{
		handler: handler.New(svc, val),
		public:  handler.NewPublicHandler(svc, log),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service exposes the lead service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the public form on /api/v1/applications and the
// operator endpoints on /api/v1/admin/leads.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	applications := ctx.V1.Group("/applications")
	if ctx.PublicRateLimiter != nil {
		applications.Use(ctx.PublicRateLimiter.RateLimit())
	}
	m.public.RegisterRoutes(applications)

	m.handler.RegisterRoutes(ctx.Admin.Group("/leads"))
}
