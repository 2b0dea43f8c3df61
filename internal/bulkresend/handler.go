package bulkresend

import (
	"net/http"

	"talent_intake_backend/platform/httpkit"
	"talent_intake_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StartRequest is the body of POST /api/v1/admin/bulk-resend.
type StartRequest struct {
	LeadIDs []uuid.UUID `json:"leadIds" validate:"required,min=1,max=1000"`
}

// Handler serves the operator bulk resend endpoints.
type Handler struct {
	mgr *Manager
	val *validator.Validator
}

func NewHandler(mgr *Manager, val *validator.Validator) *Handler {
	return &Handler{mgr: mgr, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Start)
	rg.GET("", h.Get)
	rg.DELETE("", h.Cancel)
}

// Start queues a new job and answers with its first snapshot.
func (h *Handler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "Invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "Validation failed", validator.FieldErrors(err))
		return
	}

	job, err := h.mgr.Start(c.Request.Context(), req.LeadIDs)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, job.Snapshot())
}

func (h *Handler) Get(c *gin.Context) {
	job, err := h.mgr.Current()
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, job.Snapshot())
}

// Cancel requests cancellation; the job stops before its next send.
func (h *Handler) Cancel(c *gin.Context) {
	job, err := h.mgr.Cancel()
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, job.Snapshot())
}
