// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"talent_intake_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadSubmitted is published once an application is stored and its
// notifications have been handed to the delivery queue.
// The Photo fields come from the upload's EXIF block and are never stored.
type LeadSubmitted struct {
	BaseEvent
	LeadID           uuid.UUID  `json:"leadId"`
	EventID          string     `json:"eventId"`
	MediaConverted   bool       `json:"mediaConverted"`
	PixelDispatched  bool       `json:"pixelDispatched"`
	PhotoCapturedAt  *time.Time `json:"photoCapturedAt,omitempty"`
	PhotoHasLocation bool       `json:"photoHasLocation"`
	PhotoCameraModel string     `json:"photoCameraModel,omitempty"`
}

// EventName returns the event identifier for LeadSubmitted.
func (e LeadSubmitted) EventName() string { return "leads.lead.submitted" }

// LeadStatusChanged is published when an operator moves a lead through its lifecycle.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	ChangedBy string    `json:"changedBy"`
}

// EventName returns the event identifier for LeadStatusChanged.
func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// =============================================================================
// Bulk Resend Events
// =============================================================================

// BulkResendCompleted is published when a bulk resend job stops, whether it
// ran to the end or was cancelled.
type BulkResendCompleted struct {
	BaseEvent
	JobID     uuid.UUID `json:"jobId"`
	Total     int       `json:"total"`
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Cancelled bool      `json:"cancelled"`
}

// EventName returns the event identifier for BulkResendCompleted.
func (e BulkResendCompleted) EventName() string { return "bulkresend.job.completed" }
