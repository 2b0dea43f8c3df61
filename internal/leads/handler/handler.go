package handler

import (
	"context"
	"fmt"
	"net/http"

	"talent_intake_backend/internal/leads/transport"
	"talent_intake_backend/platform/httpkit"
	"talent_intake_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "Invalid request"
	msgValidationFailed = "Validation failed"
	contentTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Management is the operator-side slice of the lead service.
type Management interface {
	List(ctx context.Context, q transport.ListLeadsQuery) (transport.LeadListResponse, error)
	Export(ctx context.Context, q transport.ListLeadsQuery) (string, []byte, error)
	Stats(ctx context.Context) (map[string]int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateStatusRequest, actor string) (transport.LeadResponse, error)
	Resend(ctx context.Context, id uuid.UUID) (transport.ResendResponse, error)
	Deliveries(ctx context.Context, id uuid.UUID) (transport.DeliveryListResponse, error)
}

// Handler serves the operator lead endpoints.
type Handler struct {
	svc Management
	val *validator.Validator
}

func New(svc Management, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/export", h.Export)
	rg.GET("/stats", h.Stats)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.POST("/:id/resend", h.Resend)
	rg.GET("/:id/deliveries", h.Deliveries)
}

func (h *Handler) List(c *gin.Context) {
	var q transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	resp, err := h.svc.List(c.Request.Context(), q)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// Export streams the filtered listing as an XLSX attachment.
func (h *Handler) Export(c *gin.Context) {
	var q transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	filename, data, err := h.svc.Export(c.Request.Context(), q)
	if httpkit.HandleError(c, err) {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentTypeXLSX, data)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	actor := httpkit.GetIdentity(c).Subject()
	lead, err := h.svc.UpdateStatus(c.Request.Context(), id, req, actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// Resend sends the operator email for one lead again, synchronously.
func (h *Handler) Resend(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.svc.Resend(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Deliveries(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.svc.Deliveries(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
