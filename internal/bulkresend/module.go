package bulkresend

import (
	"context"

	"talent_intake_backend/internal/events"
	apphttp "talent_intake_backend/internal/http"
	"talent_intake_backend/platform/config"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/validator"
)

// Module exposes bulk resend to operators under /api/v1/admin/bulk-resend.
type Module struct {
	manager *Manager
	handler *Handler
}

func NewModule(leads LeadLoader, sender Sender, eventBus events.Bus, val *validator.Validator, cfg config.BulkResendConfig, log *logger.Logger) *Module {
	mgr := NewManager(leads, NewOrchestrator(sender, cfg.GetBulkResendDelay(), log), eventBus, log)
	return &Module{
		manager: mgr,
		handler: NewHandler(mgr, val),
	}
}

func (m *Module) Name() string { return "bulkresend" }

func (m *Module) Manager() *Manager { return m.manager }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/bulk-resend"))
}

// Shutdown stops an in-flight job.
func (m *Module) Shutdown(ctx context.Context) error {
	return m.manager.Shutdown(ctx)
}
