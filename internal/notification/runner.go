package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"talent_intake_backend/internal/conversion"
	"talent_intake_backend/internal/leads/domain"
	"talent_intake_backend/internal/notification/outbox"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/metrics"

	"github.com/google/uuid"
)

// LeadLoader loads the lead a delivery belongs to.
type LeadLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
}

// Attempt identifies one execution of a delivery. Number is 1-based.
type Attempt struct {
	Number int
	Max    int
}

// Final reports whether no retry will follow this attempt.
func (a Attempt) Final() bool {
	return a.Max <= 0 || a.Number >= a.Max
}

// Executor runs a single delivery attempt.
type Executor interface {
	Execute(ctx context.Context, deliveryID uuid.UUID, attempt Attempt) error
}

// Runner executes queued deliveries and records their outcome.
type Runner struct {
	store      DeliveryStore
	leads      LeadLoader
	email      *EmailChannel
	conversion *ConversionChannel
	log        *logger.Logger
}

func NewRunner(store DeliveryStore, leads LeadLoader, emailCh *EmailChannel, conversionCh *ConversionChannel, log *logger.Logger) *Runner {
	return &Runner{
		store:      store,
		leads:      leads,
		email:      emailCh,
		conversion: conversionCh,
		log:        log,
	}
}

// Execute performs one attempt. It returns nil when the delivery is finished
// (including already-finished rows), a permanent error when it was marked
// failed, and a plain error when the queue should retry.
func (r *Runner) Execute(ctx context.Context, deliveryID uuid.UUID, attempt Attempt) error {
	rec, err := r.store.GetByID(ctx, deliveryID)
	if errors.Is(err, outbox.ErrNotFound) {
		return Permanent(err)
	}
	if err != nil {
		return fmt.Errorf("load delivery: %w", err)
	}
	if rec.Status.Terminal() {
		return nil
	}

	lead, err := r.leads.GetByID(ctx, rec.LeadID)
	if errors.Is(err, domain.ErrNotFound) {
		return r.fail(ctx, rec, Permanent(err))
	}
	if err != nil {
		return fmt.Errorf("load lead: %w", err)
	}

	if err := r.store.MarkProcessing(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark delivery processing: %w", err)
	}

	sendErr := r.send(ctx, rec, lead)
	switch {
	case sendErr == nil:
		if err := r.store.MarkSucceeded(ctx, rec.ID); err != nil {
			r.log.DatabaseError("mark delivery succeeded", err)
		}
		r.observe(rec, outbox.StatusSucceeded, nil)
		return nil
	case errors.Is(sendErr, conversion.ErrNotConfigured):
		if err := r.store.MarkSkipped(ctx, rec.ID, reasonConversionDisabled); err != nil {
			r.log.DatabaseError("mark delivery skipped", err)
		}
		r.observe(rec, outbox.StatusSkipped, nil)
		return nil
	case attempt.Final() || IsPermanent(sendErr):
		return r.fail(ctx, rec, sendErr)
	default:
		if err := r.store.MarkRetrying(ctx, rec.ID, sendErr.Error()); err != nil {
			r.log.DatabaseError("mark delivery retrying", err)
		}
		r.log.Warn("delivery attempt failed, will retry",
			"deliveryId", rec.ID, "channel", rec.Channel, "attempt", attempt.Number, "maxAttempts", attempt.Max, "error", sendErr)
		return sendErr
	}
}

func (r *Runner) send(ctx context.Context, rec outbox.Record, lead domain.Lead) error {
	switch rec.Channel {
	case outbox.ChannelEmail:
		return r.email.Send(ctx, lead)
	case outbox.ChannelConversionAPI:
		var payload deliveryPayload
		if len(rec.Payload) > 0 {
			if err := json.Unmarshal(rec.Payload, &payload); err != nil {
				return Permanent(fmt.Errorf("decode delivery payload: %w", err))
			}
		}
		return r.conversion.Send(ctx, lead, rec.EventID, payload.SourceURL)
	default:
		return Permanent(fmt.Errorf("channel %q is not executed server-side", rec.Channel))
	}
}

func (r *Runner) fail(ctx context.Context, rec outbox.Record, cause error) error {
	if err := r.store.MarkFailed(ctx, rec.ID, cause.Error()); err != nil {
		r.log.DatabaseError("mark delivery failed", err)
	}
	r.observe(rec, outbox.StatusFailed, cause)
	return Permanent(cause)
}

func (r *Runner) observe(rec outbox.Record, status outbox.Status, err error) {
	metrics.DeliveryOutcomes.WithLabelValues(string(rec.Channel), string(status)).Inc()
	r.log.ChannelOutcome(string(rec.Channel), rec.LeadID.String(), string(status), err)
}

var _ Executor = (*Runner)(nil)
