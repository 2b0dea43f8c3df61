package service

import (
	"context"
	"strings"
	"time"

	"talent_intake_backend/internal/events"
	"talent_intake_backend/internal/leads/domain"
	"talent_intake_backend/internal/leads/repository"
	"talent_intake_backend/internal/leads/transport"
	"talent_intake_backend/platform/apperr"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

var (
	errInvalidDateRange = apperr.BadRequest("from must not be after to")
	errInvalidDate      = apperr.BadRequest("dates must use YYYY-MM-DD")
	errResendFailed     = apperr.Unavailable("Failed to send email")
)

// List returns leads created within the query's days, newest first.
func (s *Service) List(ctx context.Context, q transport.ListLeadsQuery) (transport.LeadListResponse, error) {
	params, err := parseListParams(q)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	leads, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, toLeadResponse(lead))
	}
	return transport.LeadListResponse{Items: items, Total: len(items)}, nil
}

// Stats returns the number of leads per status plus a "total" key.
func (s *Service) Stats(ctx context.Context) (map[string]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(counts)+1)
	total := 0
	for _, status := range domain.Statuses {
		out[string(status)] = counts[status]
		total += counts[status]
	}
	out["total"] = total
	return out, nil
}

// UpdateStatus is the only mutation a stored lead accepts.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateStatusRequest, actor string) (transport.LeadResponse, error) {
	status := domain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		return transport.LeadResponse{}, domain.ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if current.Status == status {
		return toLeadResponse(current), nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.eventBus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
		OldStatus: string(current.Status),
		NewStatus: string(updated.Status),
		ChangedBy: actor,
	})
	return toLeadResponse(updated), nil
}

// Resend sends the operator notification for one lead synchronously.
func (s *Service) Resend(ctx context.Context, id uuid.UUID) (transport.ResendResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ResendResponse{}, err
	}

	if err := s.mailer.Send(ctx, lead); err != nil {
		s.log.ChannelOutcome("email", id.String(), "failed", err)
		return transport.ResendResponse{}, errResendFailed
	}
	s.log.ChannelOutcome("email", id.String(), "succeeded", nil)
	return transport.ResendResponse{Success: true, LeadID: id}, nil
}

// Deliveries returns the delivery outcome log of one lead.
func (s *Service) Deliveries(ctx context.Context, id uuid.UUID) (transport.DeliveryListResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return transport.DeliveryListResponse{}, err
	}

	records, err := s.deliveries.ListByLead(ctx, id)
	if err != nil {
		return transport.DeliveryListResponse{}, err
	}

	items := make([]transport.DeliveryResponse, 0, len(records))
	for _, r := range records {
		items = append(items, transport.DeliveryResponse{
			ID:          r.ID,
			Channel:     string(r.Channel),
			EventID:     r.EventID,
			Status:      string(r.Status),
			Attempts:    r.Attempts,
			LastError:   r.LastError,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			CompletedAt: r.CompletedAt,
		})
	}
	return transport.DeliveryListResponse{Items: items}, nil
}

func parseListParams(q transport.ListLeadsQuery) (repository.ListParams, error) {
	var params repository.ListParams
	var err error

	if q.From != "" {
		if params.From, err = time.Parse(dateLayout, q.From); err != nil {
			return params, errInvalidDate
		}
	}
	if q.To != "" {
		if params.To, err = time.Parse(dateLayout, q.To); err != nil {
			return params, errInvalidDate
		}
	}
	if !params.From.IsZero() && !params.To.IsZero() && params.From.After(params.To) {
		return params, errInvalidDateRange
	}
	return params, nil
}

func toLeadResponse(lead domain.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:        lead.ID,
		ChildName: lead.ChildName,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Gender:    lead.Gender,
		Email:     lead.Email,
		Phone:     lead.Phone,
		PostCode:  lead.PostCode,
		Age:       lead.Age,
		ImageURL:  lead.ImageURL,
		Status:    string(lead.Status),
		CreatedAt: lead.CreatedAt,
		UpdatedAt: lead.UpdatedAt,
	}
}
