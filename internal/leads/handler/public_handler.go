package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"talent_intake_backend/internal/leads/service"
	"talent_intake_backend/internal/leads/transport"
	"talent_intake_backend/internal/media"
	"talent_intake_backend/platform/httpkit"
	"talent_intake_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// maxMultipartMemory is the in-memory budget for one form; larger parts spill to disk.
const maxMultipartMemory = 32 << 20

const (
	msgUnreadableForm  = "Unable to parse form data"
	msgUnreadableImage = "Unable to read image"
)

// Intake is the slice of the lead service the public form needs.
type Intake interface {
	Submit(ctx context.Context, form transport.ApplicationForm, image *media.File) (service.SubmitResult, error)
}

// PublicHandler serves the unauthenticated application form.
type PublicHandler struct {
	svc Intake
	log *logger.Logger
}

func NewPublicHandler(svc Intake, log *logger.Logger) *PublicHandler {
	return &PublicHandler{svc: svc, log: log}
}

func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Submit)
}

// Submit accepts one multipart application with an "image" part.
func (h *PublicHandler) Submit(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgUnreadableForm, nil)
		return
	}

	var form transport.ApplicationForm
	if err := c.ShouldBind(&form); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgUnreadableForm, nil)
		return
	}

	image, err := readImage(c)
	if err != nil {
		h.log.Warn("application image unreadable", "error", err)
		httpkit.Error(c, http.StatusBadRequest, msgUnreadableImage, nil)
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), form, image)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.SubmitApplicationResponse{
		LeadID:  result.Lead.ID,
		EventID: result.Receipt.EventID,
		Pixel:   result.Receipt.Pixel,
		Message: service.MsgSubmitted,
	})
}

// readImage returns nil without error when the form carried no image part,
// leaving the required check to the service.
func readImage(c *gin.Context) (*media.File, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return openPart(fh)
}

func openPart(fh *multipart.FileHeader) (*media.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &media.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
