package notification

import (
	"context"
	"errors"
	"fmt"

	"talent_intake_backend/internal/conversion"
	"talent_intake_backend/internal/leads/domain"
	"talent_intake_backend/internal/notification/outbox"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DeliveryStore is the subset of the delivery log used by the fan-out and runner.
type DeliveryStore interface {
	Insert(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (outbox.Record, error)
	MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkRetrying(ctx context.Context, id uuid.UUID, lastError string) error
	MarkSucceeded(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
	MarkSkipped(ctx context.Context, id uuid.UUID, reason string) error
}

// Queue hands a persisted delivery to whatever executes it.
type Queue interface {
	EnqueueDelivery(ctx context.Context, deliveryID uuid.UUID) error
}

// NotifyOptions carries the per-submission inputs of the fan-out.
type NotifyOptions struct {
	// EventID is shared by the pixel and the conversion API. Generated when empty.
	EventID   string
	SourceURL string
	Pixel     conversion.Pixel
}

// Delivery is one channel's entry in a Receipt.
type Delivery struct {
	ID      uuid.UUID      `json:"id"`
	Channel outbox.Channel `json:"channel"`
	Status  outbox.Status  `json:"status"`
}

// Receipt reports what the fan-out handed off. It never reflects delivery success.
type Receipt struct {
	EventID    string                 `json:"eventId"`
	Pixel      *conversion.PixelEvent `json:"pixel"`
	Deliveries []Delivery             `json:"deliveries"`
}

// deliveryPayload is stored with each delivery row.
type deliveryPayload struct {
	SourceURL string                 `json:"sourceUrl,omitempty"`
	Pixel     *conversion.PixelEvent `json:"pixel,omitempty"`
}

const (
	reasonPixelNotInitialized = "pixel not initialized"
	reasonConversionDisabled  = "conversion api not configured"
)

// FanOut records one delivery per channel for a stored lead and queues the
// ones the server performs.
type FanOut struct {
	store      DeliveryStore
	queue      Queue
	conversion *ConversionChannel
	currency   string
	value      float64
	log        *logger.Logger
}

func NewFanOut(store DeliveryStore, queue Queue, conversionCh *ConversionChannel, builder *conversion.Builder, log *logger.Logger) *FanOut {
	return &FanOut{
		store:      store,
		queue:      queue,
		conversion: conversionCh,
		currency:   builder.Currency(),
		value:      builder.Value(),
		log:        log,
	}
}

// Notify never fails the caller. Bookkeeping runs on a context detached from
// the request so a disconnecting client cannot drop a channel.
func (f *FanOut) Notify(ctx context.Context, lead domain.Lead, opts NotifyOptions) Receipt {
	ctx = context.WithoutCancel(ctx)

	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	receipt := Receipt{EventID: eventID}
	results := make([]Delivery, 3)

	var g errgroup.Group

	g.Go(func() error {
		var err error
		results[0], err = f.enqueue(ctx, lead.ID, outbox.ChannelEmail, eventID, deliveryPayload{})
		return err
	})

	g.Go(func() error {
		var err error
		if !f.conversion.Configured() {
			results[1], err = f.record(ctx, lead.ID, outbox.ChannelConversionAPI, eventID, outbox.StatusSkipped, reasonConversionDisabled, deliveryPayload{SourceURL: opts.SourceURL})
			return err
		}
		results[1], err = f.enqueue(ctx, lead.ID, outbox.ChannelConversionAPI, eventID, deliveryPayload{SourceURL: opts.SourceURL})
		return err
	})

	pixelEvent, pixelErr := opts.Pixel.Track(eventID, f.currency, f.value)
	if pixelErr == nil {
		receipt.Pixel = &pixelEvent
	}
	g.Go(func() error {
		var err error
		if errors.Is(pixelErr, conversion.ErrPixelNotInitialized) {
			results[2], err = f.record(ctx, lead.ID, outbox.ChannelPixel, eventID, outbox.StatusSkipped, reasonPixelNotInitialized, deliveryPayload{})
			return err
		}
		results[2], err = f.record(ctx, lead.ID, outbox.ChannelPixel, eventID, outbox.StatusSucceeded, "", deliveryPayload{Pixel: &pixelEvent})
		return err
	})

	if err := g.Wait(); err != nil {
		f.log.Error("notification fan-out incomplete", "leadId", lead.ID, "eventId", eventID, "error", err)
	}

	for _, d := range results {
		if d.Channel != "" {
			receipt.Deliveries = append(receipt.Deliveries, d)
		}
	}
	return receipt
}

// enqueue persists a delivery and hands it to the queue. A queue failure
// leaves the row pending for the recovery dispatcher.
func (f *FanOut) enqueue(ctx context.Context, leadID uuid.UUID, channel outbox.Channel, eventID string, payload deliveryPayload) (Delivery, error) {
	id, err := f.store.Insert(ctx, outbox.InsertParams{
		LeadID:  leadID,
		Channel: channel,
		EventID: eventID,
		Payload: payload,
		Status:  outbox.StatusEnqueued,
	})
	if err != nil {
		f.log.DatabaseError("insert delivery", err)
		return Delivery{}, fmt.Errorf("record %s delivery: %w", channel, err)
	}

	if err := f.queue.EnqueueDelivery(ctx, id); err != nil {
		msg := err.Error()
		if markErr := f.store.MarkPending(ctx, id, &msg); markErr != nil {
			f.log.DatabaseError("mark delivery pending", markErr)
		}
		f.log.Warn("delivery enqueue failed, left pending", "deliveryId", id, "channel", channel, "error", err)
		return Delivery{ID: id, Channel: channel, Status: outbox.StatusPending}, nil
	}

	return Delivery{ID: id, Channel: channel, Status: outbox.StatusEnqueued}, nil
}

// record persists a delivery whose outcome is already known.
func (f *FanOut) record(ctx context.Context, leadID uuid.UUID, channel outbox.Channel, eventID string, status outbox.Status, reason string, payload deliveryPayload) (Delivery, error) {
	var lastError *string
	if reason != "" {
		lastError = &reason
	}

	id, err := f.store.Insert(ctx, outbox.InsertParams{
		LeadID:    leadID,
		Channel:   channel,
		EventID:   eventID,
		Payload:   payload,
		Status:    status,
		LastError: lastError,
	})
	if err != nil {
		f.log.DatabaseError("insert delivery", err)
		return Delivery{}, fmt.Errorf("record %s delivery: %w", channel, err)
	}

	metrics.DeliveryOutcomes.WithLabelValues(string(channel), string(status)).Inc()
	f.log.ChannelOutcome(string(channel), leadID.String(), string(status), nil)
	return Delivery{ID: id, Channel: channel, Status: status}, nil
}
