package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"talent_intake_backend/internal/conversion"
	"talent_intake_backend/internal/events"
	"talent_intake_backend/internal/leads/domain"
	"talent_intake_backend/internal/leads/store"
	"talent_intake_backend/internal/leads/transport"
	"talent_intake_backend/internal/media"
	"talent_intake_backend/internal/notification"
	"talent_intake_backend/platform/apperr"
	"talent_intake_backend/platform/metrics"
	"talent_intake_backend/platform/phone"
	"talent_intake_backend/platform/postcode"
	"talent_intake_backend/platform/sanitize"
	"talent_intake_backend/platform/validator"

	"github.com/gabriel-vasile/mimetype"
)

const (
	msgInvalidInput     = "Invalid input"
	msgSubmissionFailed = "Failed to submit application"
	// MsgSubmitted is shown to the applicant once the lead is stored.
	MsgSubmitted = "Application submitted successfully"
)

// applicantInput carries the validation rules for a masked submission.
type applicantInput struct {
	ChildName string `validate:"required,min=2,max=100"`
	FirstName string `validate:"required,min=2,max=100"`
	LastName  string `validate:"required,min=2,max=100"`
	Gender    string `validate:"omitempty,max=30"`
	Email     string `validate:"required,email,max=254"`
	Phone     string `validate:"required,ukphone"`
	PostCode  string `validate:"required,ukpostcode"`
}

// SubmitResult is what an accepted submission produced.
type SubmitResult struct {
	Lead           domain.Lead
	Receipt        notification.Receipt
	MediaConverted bool
}

// Submit runs the intake pipeline: mask, validate, normalize the photo,
// reject duplicates, upload, insert, then hand the lead to the notification
// fan-out. Any failure before the insert completes leaves no lead behind.
func (s *Service) Submit(ctx context.Context, form transport.ApplicationForm, image *media.File) (SubmitResult, error) {
	applicant, fieldErrs := s.applicantFromForm(form)
	if image == nil || len(image.Data) == 0 {
		fieldErrs["image"] = "required"
	} else {
		image.ContentType = declaredOrSniffed(*image)
		if err := s.store.ValidateImage(image.ContentType, image.Size()); err != nil {
			fieldErrs["image"] = err.Error()
		}
	}
	if len(fieldErrs) > 0 {
		metrics.LeadSubmissions.WithLabelValues("invalid").Inc()
		return SubmitResult{}, apperr.Validation(msgInvalidInput).WithDetails(fieldErrs)
	}

	// EXIF is read from the upload as received; HEIC conversion drops it.
	photo, hasExif := s.inspect(*image)
	normalized := s.normalizer.Normalize(ctx, *image)

	if err := s.dedup.Check(ctx, applicant.Email, applicant.Phone); err != nil {
		if errors.Is(err, domain.ErrDuplicateLead) {
			metrics.LeadSubmissions.WithLabelValues("duplicate").Inc()
			return SubmitResult{}, err
		}
		metrics.LeadSubmissions.WithLabelValues("failed").Inc()
		s.log.DatabaseError("duplicate check", err)
		return SubmitResult{}, apperr.Wrap(apperr.KindInternal, msgSubmissionFailed, err)
	}

	stored, err := s.store.Upload(ctx, normalized.File)
	if err != nil {
		metrics.LeadSubmissions.WithLabelValues("failed").Inc()
		s.log.Error("media upload failed", "error", err, "file", normalized.File.Name)
		return SubmitResult{}, apperr.Wrap(apperr.KindInternal, msgSubmissionFailed, err)
	}

	lead, err := s.store.Insert(ctx, applicant, stored)
	if err != nil {
		s.handleOrphan(ctx, stored, err)
		if errors.Is(err, domain.ErrDuplicateLead) {
			metrics.LeadSubmissions.WithLabelValues("duplicate").Inc()
			return SubmitResult{}, domain.ErrDuplicateLead
		}
		metrics.LeadSubmissions.WithLabelValues("failed").Inc()
		return SubmitResult{}, apperr.Wrap(apperr.KindInternal, msgSubmissionFailed, err)
	}
	metrics.LeadSubmissions.WithLabelValues("accepted").Inc()
	if hasExif {
		s.log.Info("lead photo metadata",
			"leadId", lead.ID, "cameraModel", photo.CameraModel, "capturedAt", photo.CapturedAt, "hasLocation", photo.HasLocation)
	}

	receipt := s.notifier.Notify(ctx, lead, notification.NotifyOptions{
		EventID:   strings.TrimSpace(form.EventID),
		SourceURL: strings.TrimSpace(form.SourceURL),
		Pixel:     conversion.NewPixel(s.pixelID, form.TrackingReady()),
	})

	submitted := events.LeadSubmitted{
		BaseEvent:        events.NewBaseEvent(),
		LeadID:           lead.ID,
		EventID:          receipt.EventID,
		MediaConverted:   normalized.Converted,
		PixelDispatched:  receipt.Pixel != nil,
		PhotoHasLocation: photo.HasLocation,
		PhotoCameraModel: photo.CameraModel,
	}
	if !photo.CapturedAt.IsZero() {
		capturedAt := photo.CapturedAt
		submitted.PhotoCapturedAt = &capturedAt
	}
	s.eventBus.Publish(ctx, submitted)

	return SubmitResult{Lead: lead, Receipt: receipt, MediaConverted: normalized.Converted}, nil
}

// applicantFromForm applies the input masks and returns the rule violations
// keyed by form field.
func (s *Service) applicantFromForm(form transport.ApplicationForm) (domain.Applicant, map[string]string) {
	in := applicantInput{
		ChildName: sanitize.Text(form.ChildName),
		FirstName: sanitize.Text(form.FirstName),
		LastName:  sanitize.Text(form.LastName),
		Gender:    strings.ToLower(sanitize.Text(form.Gender)),
		Email:     strings.ToLower(strings.TrimSpace(form.Email)),
		Phone:     phone.Mask(form.Phone),
		PostCode:  postcode.Normalize(form.PostCode),
	}

	fieldErrs := map[string]string{}
	if err := s.val.Struct(in); err != nil {
		fieldErrs = validator.FieldErrors(err)
	}

	age, err := strconv.Atoi(strings.TrimSpace(form.Age))
	switch {
	case err != nil:
		fieldErrs["age"] = "number"
	case age < s.minAge || age > s.maxAge:
		fieldErrs["age"] = fmt.Sprintf("between %d and %d", s.minAge, s.maxAge)
	}

	return domain.Applicant{
		ChildName: in.ChildName,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Gender:    in.Gender,
		Email:     in.Email,
		Phone:     in.Phone,
		PostCode:  in.PostCode,
		Age:       age,
	}, fieldErrs
}

// handleOrphan reports the photo left behind by a failed insert and deletes
// it only when configured to.
func (s *Service) handleOrphan(ctx context.Context, stored store.StoredMedia, cause error) {
	if errors.Is(cause, domain.ErrDuplicateLead) {
		s.log.Warn("duplicate caught by unique constraint after upload", "mediaKey", stored.Key)
	} else {
		s.log.Error("lead insert failed after upload, media orphaned", "error", cause, "mediaKey", stored.Key)
	}
	if !s.deleteOrphans {
		return
	}
	if err := s.store.Discard(context.WithoutCancel(ctx), stored); err != nil {
		s.log.Warn("failed to delete orphaned media", "error", err, "mediaKey", stored.Key)
	}
}

// declaredOrSniffed trusts the declared type unless the browser sent none or
// a generic one, which some send for HEIC.
func declaredOrSniffed(f media.File) string {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(f.ContentType, ";")[0]))
	if ct == "" || ct == "application/octet-stream" {
		return strings.Split(mimetype.Detect(f.Data).String(), ";")[0]
	}
	return ct
}
