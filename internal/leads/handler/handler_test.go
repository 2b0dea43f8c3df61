package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"talent_intake_backend/internal/conversion"
	"talent_intake_backend/internal/leads/domain"
	"talent_intake_backend/internal/leads/service"
	"talent_intake_backend/internal/leads/transport"
	"talent_intake_backend/internal/media"
	"talent_intake_backend/internal/notification"
	"talent_intake_backend/platform/apperr"
	"talent_intake_backend/platform/httpkit"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIntake struct {
	form  transport.ApplicationForm
	image *media.File
	err   error
}

func (s *stubIntake) Submit(_ context.Context, form transport.ApplicationForm, image *media.File) (service.SubmitResult, error) {
	s.form = form
	s.image = image
	if s.err != nil {
		return service.SubmitResult{}, s.err
	}
	pixel := &conversion.PixelEvent{EventName: "Lead", EventID: "evt-1"}
	return service.SubmitResult{
		Lead:    domain.Lead{ID: uuid.MustParse("7f1c7d7e-8f3e-4b7a-9c55-3f7d5a0b1c2d")},
		Receipt: notification.Receipt{EventID: "evt-1", Pixel: pixel},
	}, nil
}

type stubManagement struct {
	actor   string
	status  transport.UpdateStatusRequest
	err     error
	export  []byte
	listQ   transport.ListLeadsQuery
	resends []uuid.UUID
}

func (s *stubManagement) List(_ context.Context, q transport.ListLeadsQuery) (transport.LeadListResponse, error) {
	s.listQ = q
	return transport.LeadListResponse{Items: []transport.LeadResponse{}}, s.err
}

func (s *stubManagement) Export(_ context.Context, q transport.ListLeadsQuery) (string, []byte, error) {
	return "applications_all_2024-05-06.xlsx", s.export, s.err
}

func (s *stubManagement) Stats(context.Context) (map[string]int, error) {
	return map[string]int{"new": 2, "total": 2}, s.err
}

func (s *stubManagement) UpdateStatus(_ context.Context, id uuid.UUID, req transport.UpdateStatusRequest, actor string) (transport.LeadResponse, error) {
	s.actor = actor
	s.status = req
	return transport.LeadResponse{ID: id, Status: req.Status}, s.err
}

func (s *stubManagement) Resend(_ context.Context, id uuid.UUID) (transport.ResendResponse, error) {
	s.resends = append(s.resends, id)
	if s.err != nil {
		return transport.ResendResponse{}, s.err
	}
	return transport.ResendResponse{Success: true, LeadID: id}, nil
}

func (s *stubManagement) Deliveries(context.Context, uuid.UUID) (transport.DeliveryListResponse, error) {
	return transport.DeliveryListResponse{Items: []transport.DeliveryResponse{}}, s.err
}

func newPublicRouter(svc Intake) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewPublicHandler(svc, logger.NewDiscard()).RegisterRoutes(r.Group("/api/v1/applications"))
	return r
}

func newAdminRouter(svc Management) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(httpkit.ContextSubjectKey, "ops@tinytalent.uk")
		c.Set(httpkit.ContextRolesKey, []string{"operator"})
		c.Next()
	})
	New(svc, validator.New()).RegisterRoutes(r.Group("/api/v1/admin/leads"))
	return r
}

func multipartBody(t *testing.T, fields map[string]string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if withImage {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="IMG_0001.HEIC"`)
		h.Set("Content-Type", "image/heic")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("heic-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func serve(r http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitApplicationCreated(t *testing.T) {
	svc := &stubIntake{}
	body, ct := multipartBody(t, map[string]string{
		"childName":  "Max",
		"firstName":  "Anna",
		"lastName":   "Smith",
		"email":      "a@b.com",
		"phone":      "07911123456",
		"postCode":   "SW1A1AA",
		"age":        "5",
		"eventId":    "evt-browser",
		"pixelReady": "on",
	}, true)

	w := serve(newPublicRouter(svc), http.MethodPost, "/api/v1/applications", body, ct)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "evt-1", resp["eventId"])
	assert.Equal(t, service.MsgSubmitted, resp["message"])
	assert.NotNil(t, resp["pixel"])

	assert.Equal(t, "Max", svc.form.ChildName)
	assert.Equal(t, "evt-browser", svc.form.EventID)
	assert.Equal(t, "on", svc.form.PixelReady)
	assert.True(t, svc.form.TrackingReady())
	require.NotNil(t, svc.image)
	assert.Equal(t, "IMG_0001.HEIC", svc.image.Name)
	assert.Equal(t, "image/heic", svc.image.ContentType)
	assert.Equal(t, []byte("heic-bytes"), svc.image.Data)
}

func TestSubmitApplicationWithoutImageDefersToService(t *testing.T) {
	svc := &stubIntake{err: apperr.Validation("Invalid input").WithDetails(map[string]string{"image": "required"})}
	body, ct := multipartBody(t, map[string]string{"childName": "Max"}, false)

	w := serve(newPublicRouter(svc), http.MethodPost, "/api/v1/applications", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.image)
	assert.Contains(t, w.Body.String(), `"image":"required"`)
}

func TestSubmitApplicationDuplicate(t *testing.T) {
	svc := &stubIntake{err: domain.ErrDuplicateLead}
	body, ct := multipartBody(t, map[string]string{"childName": "Max"}, true)

	w := serve(newPublicRouter(svc), http.MethodPost, "/api/v1/applications", body, ct)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")
}

func TestSubmitApplicationRejectsNonMultipart(t *testing.T) {
	svc := &stubIntake{}

	w := serve(newPublicRouter(svc), http.MethodPost, "/api/v1/applications", bytes.NewBufferString(`{"childName":"Max"}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.form.ChildName)
}

func TestListPassesDateFilters(t *testing.T) {
	svc := &stubManagement{}

	w := serve(newAdminRouter(svc), http.MethodGet, "/api/v1/admin/leads?from=2024-01-01&to=2024-01-31", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-01-01", svc.listQ.From)
	assert.Equal(t, "2024-01-31", svc.listQ.To)
	assert.JSONEq(t, `{"items":[],"total":0}`, w.Body.String())
}

func TestExportAttachment(t *testing.T) {
	svc := &stubManagement{export: []byte("PK\x03\x04")}

	w := serve(newAdminRouter(svc), http.MethodGet, "/api/v1/admin/leads/export", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="applications_all_2024-05-06.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK\x03\x04", w.Body.String())
}

func TestUpdateStatusUsesCallerIdentity(t *testing.T) {
	svc := &stubManagement{}
	id := uuid.New()

	w := serve(newAdminRouter(svc), http.MethodPatch, "/api/v1/admin/leads/"+id.String()+"/status",
		bytes.NewBufferString(`{"status":"contacted"}`), "application/json")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ops@tinytalent.uk", svc.actor)
	assert.Equal(t, "contacted", svc.status.Status)
}

func TestUpdateStatusValidation(t *testing.T) {
	svc := &stubManagement{}

	w := serve(newAdminRouter(svc), http.MethodPatch, "/api/v1/admin/leads/"+uuid.NewString()+"/status",
		bytes.NewBufferString(`{}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"required"`)
	assert.Empty(t, svc.actor)
}

func TestResendErrors(t *testing.T) {
	cases := []struct {
		name string
		path string
		err  error
		code int
	}{
		{"bad id", "/api/v1/admin/leads/not-a-uuid/resend", nil, http.StatusBadRequest},
		{"missing lead", "/api/v1/admin/leads/" + uuid.NewString() + "/resend", domain.ErrNotFound, http.StatusNotFound},
		{"mail down", "/api/v1/admin/leads/" + uuid.NewString() + "/resend", apperr.Unavailable("Failed to send email"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(newAdminRouter(&stubManagement{err: tc.err}), http.MethodPost, tc.path, nil, "")
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestStatsAndDeliveries(t *testing.T) {
	svc := &stubManagement{}
	r := newAdminRouter(svc)

	w := serve(r, http.MethodGet, "/api/v1/admin/leads/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"new":2,"total":2}`, w.Body.String())

	w = serve(r, http.MethodGet, "/api/v1/admin/leads/"+uuid.NewString()+"/deliveries", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), `{"items":[]`))
}
