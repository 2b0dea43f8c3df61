package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"talent_intake_backend/internal/conversion"
	"talent_intake_backend/internal/email"
	"talent_intake_backend/internal/notification/transport"
	"talent_intake_backend/platform/httpkit"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/sanitize"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgMissingRequiredFields = "Missing required fields"
	msgFailedToSendEmail     = "Failed to send email"
	msgMissingCredentials    = "Missing Meta credentials"
	msgFailedToSendCAPI      = "Failed to send to CAPI"
)

// EventSender posts one conversion event to the Conversions API.
type EventSender interface {
	Configured() bool
	Send(ctx context.Context, event conversion.Event) error
}

// HTTPHandler serves the two synchronous channel endpoints used by the form.
type HTTPHandler struct {
	sender    email.Sender
	recipient string
	builder   *conversion.Builder
	events    EventSender
	log       *logger.Logger
}

func NewHTTPHandler(sender email.Sender, recipient string, builder *conversion.Builder, events EventSender, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		sender:    sender,
		recipient: recipient,
		builder:   builder,
		events:    events,
		log:       log,
	}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/send-email", h.SendEmail)
	rg.POST("/track-lead", h.TrackLead)
}

// SendEmail sends the operator notification synchronously.
func (h *HTTPHandler) SendEmail(c *gin.Context) {
	var req transport.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingRequiredFields, nil)
		return
	}

	n := email.LeadNotification{
		ChildName: sanitize.Text(req.ChildName),
		Gender:    sanitize.Text(req.Gender),
		Age:       sanitize.Text(req.Age.String()),
		FirstName: sanitize.Text(req.FirstName),
		LastName:  sanitize.Text(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		PostCode:  sanitize.Text(req.PostCode),
		ImageURL:  strings.TrimSpace(req.ImageURL),
	}
	if n.ChildName == "" {
		n.ChildName = n.FirstName
	}
	if n.ChildName == "" || n.Email == "" || n.Phone == "" {
		httpkit.Error(c, http.StatusBadRequest, msgMissingRequiredFields, nil)
		return
	}

	if err := h.sender.SendLeadNotification(c.Request.Context(), h.recipient, n); err != nil {
		h.log.Error("send-email failed", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, msgFailedToSendEmail, nil)
		return
	}

	httpkit.OK(c, transport.SuccessResponse{Success: true})
}

// TrackLead posts one conversion event and echoes the event id used.
func (h *HTTPHandler) TrackLead(c *gin.Context) {
	if h.events == nil || !h.events.Configured() {
		httpkit.Error(c, http.StatusInternalServerError, msgMissingCredentials, nil)
		return
	}

	var req transport.TrackLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("track-lead body rejected", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, httpkit.MsgInternalServerError, nil)
		return
	}

	eventID := strings.TrimSpace(req.EventID)
	if eventID == "" {
		eventID = uuid.NewString()
	}

	event := h.builder.Build(conversion.Input{
		Email:     req.Email,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		PostCode:  req.PostCode,
		ChildName: req.ChildName,
		Gender:    req.Gender,
		Age:       req.Age.String(),
	}, eventID, req.SourceURL)

	err := h.events.Send(c.Request.Context(), event)
	var apiErr *conversion.APIError
	switch {
	case err == nil:
		httpkit.OK(c, transport.TrackLeadResponse{Success: true, DeduplicationID: eventID})
	case errors.As(err, &apiErr):
		httpkit.Error(c, http.StatusBadRequest, msgFailedToSendCAPI, apiErr.Details)
	case errors.Is(err, conversion.ErrNotConfigured):
		httpkit.Error(c, http.StatusInternalServerError, msgMissingCredentials, nil)
	default:
		h.log.Error("track-lead failed", "eventId", eventID, "error", err)
		httpkit.Error(c, http.StatusInternalServerError, httpkit.MsgInternalServerError, nil)
	}
}
