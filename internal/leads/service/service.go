// Package service implements the application intake pipeline and the
// operator-side lead management use cases.
package service

import (
	"context"
	"time"

	"talent_intake_backend/internal/events"
	"talent_intake_backend/internal/leads/domain"
	"talent_intake_backend/internal/leads/repository"
	"talent_intake_backend/internal/leads/store"
	"talent_intake_backend/internal/media"
	"talent_intake_backend/internal/notification"
	"talent_intake_backend/internal/notification/outbox"
	"talent_intake_backend/platform/config"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/validator"

	"github.com/google/uuid"
)

// LeadStore uploads photos and writes lead rows.
type LeadStore interface {
	ValidateImage(contentType string, size int64) error
	Upload(ctx context.Context, f media.File) (store.StoredMedia, error)
	Insert(ctx context.Context, applicant domain.Applicant, m store.StoredMedia) (domain.Lead, error)
	Discard(ctx context.Context, m store.StoredMedia) error
}

// MediaNormalizer makes uploads renderable in every browser.
type MediaNormalizer interface {
	Normalize(ctx context.Context, f media.File) media.Result
}

// Notifier fans a stored lead out to the notification channels.
type Notifier interface {
	Notify(ctx context.Context, lead domain.Lead, opts notification.NotifyOptions) notification.Receipt
}

// LeadMailer sends the operator notification for one lead.
type LeadMailer interface {
	Send(ctx context.Context, lead domain.Lead) error
}

// DeliveryReader lists a lead's delivery outcomes.
type DeliveryReader interface {
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]outbox.Record, error)
}

// Deps are the collaborators of the lead service.
type Deps struct {
	Repo       repository.LeadRepository
	Store      LeadStore
	Normalizer MediaNormalizer
	Notifier   Notifier
	Mailer     LeadMailer
	Deliveries DeliveryReader
	Validator  *validator.Validator
	EventBus   events.Bus
	PixelID    string
	Config     config.IntakeConfig
	Log        *logger.Logger
}

type Service struct {
	repo          repository.LeadRepository
	store         LeadStore
	normalizer    MediaNormalizer
	notifier      Notifier
	mailer        LeadMailer
	deliveries    DeliveryReader
	dedup         *Deduplicator
	val           *validator.Validator
	eventBus      events.Bus
	pixelID       string
	minAge        int
	maxAge        int
	deleteOrphans bool
	log           *logger.Logger
	now           func() time.Time
	inspect       func(media.File) (media.Metadata, bool)
}

func New(d Deps) *Service {
	return &Service{
		repo:          d.Repo,
		store:         d.Store,
		normalizer:    d.Normalizer,
		notifier:      d.Notifier,
		mailer:        d.Mailer,
		deliveries:    d.Deliveries,
		dedup:         NewDeduplicator(d.Repo),
		val:           d.Validator,
		eventBus:      d.EventBus,
		pixelID:       d.PixelID,
		minAge:        d.Config.GetIntakeMinAge(),
		maxAge:        d.Config.GetIntakeMaxAge(),
		deleteOrphans: d.Config.GetDeleteOrphanedMedia(),
		log:           d.Log,
		now:           time.Now,
		inspect:       media.Inspect,
	}
}
