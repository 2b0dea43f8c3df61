package transport

import (
	"strings"
	"time"

	"talent_intake_backend/internal/conversion"

	"github.com/google/uuid"
)

// ApplicationForm is the multipart body of POST /api/v1/applications.
// The image part is read separately.
type ApplicationForm struct {
	ChildName  string `form:"childName"`
	FirstName  string `form:"firstName"`
	LastName   string `form:"lastName"`
	Gender     string `form:"gender"`
	Email      string `form:"email"`
	Phone      string `form:"phone"`
	PostCode   string `form:"postCode"`
	Age        string `form:"age"`
	EventID    string `form:"eventId"`
	SourceURL  string `form:"sourceUrl"`
	PixelReady string `form:"pixelReady"`
}

// TrackingReady reports whether the browser said its pixel library loaded.
// Checkbox ("on") and boolean ("true", "1") encodings are accepted.
func (f ApplicationForm) TrackingReady() bool {
	switch strings.ToLower(strings.TrimSpace(f.PixelReady)) {
	case "on", "true", "1":
		return true
	}
	return false
}

// SubmitApplicationResponse tells the browser which event id to fire the
// pixel with. Pixel is null when the browser reported no tracking library.
type SubmitApplicationResponse struct {
	LeadID  uuid.UUID              `json:"leadId"`
	EventID string                 `json:"eventId"`
	Pixel   *conversion.PixelEvent `json:"pixel"`
	Message string                 `json:"message"`
}

type LeadResponse struct {
	ID        uuid.UUID `json:"id"`
	ChildName string    `json:"childName"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Gender    string    `json:"gender"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	PostCode  string    `json:"postCode"`
	Age       int       `json:"age"`
	ImageURL  string    `json:"imageUrl"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}

// ListLeadsQuery bounds the listing by creation day, both ends inclusive.
type ListLeadsQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,max=30"`
}

type ResendResponse struct {
	Success bool      `json:"success"`
	LeadID  uuid.UUID `json:"leadId"`
}

type DeliveryResponse struct {
	ID          uuid.UUID  `json:"id"`
	Channel     string     `json:"channel"`
	EventID     string     `json:"eventId"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   *string    `json:"lastError,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type DeliveryListResponse struct {
	Items []DeliveryResponse `json:"items"`
}
