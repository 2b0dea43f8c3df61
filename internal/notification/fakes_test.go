package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"talent_intake_backend/internal/conversion"
	"talent_intake_backend/internal/email"
	"talent_intake_backend/internal/leads/domain"
	"talent_intake_backend/internal/notification/outbox"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*outbox.Record
	failIns error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[uuid.UUID]*outbox.Record)}
}

func (s *memoryStore) Insert(_ context.Context, p outbox.InsertParams) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIns != nil {
		return uuid.Nil, s.failIns
	}
	payload, err := json.Marshal(p.Payload)
	if err != nil {
		return uuid.Nil, err
	}
	status := p.Status
	if status == "" {
		status = outbox.StatusPending
	}
	id := uuid.New()
	s.records[id] = &outbox.Record{
		ID:        id,
		LeadID:    p.LeadID,
		Channel:   p.Channel,
		EventID:   p.EventID,
		Payload:   payload,
		Status:    status,
		LastError: p.LastError,
		CreatedAt: time.Now(),
	}
	return id, nil
}

func (s *memoryStore) GetByID(_ context.Context, id uuid.UUID) (outbox.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return outbox.Record{}, outbox.ErrNotFound
	}
	return *rec, nil
}

func (s *memoryStore) update(id uuid.UUID, fn func(*outbox.Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return outbox.ErrNotFound
	}
	fn(rec)
	return nil
}

func (s *memoryStore) MarkPending(_ context.Context, id uuid.UUID, lastError *string) error {
	return s.update(id, func(r *outbox.Record) { r.Status = outbox.StatusPending; r.LastError = lastError })
}

func (s *memoryStore) MarkProcessing(_ context.Context, id uuid.UUID) error {
	return s.update(id, func(r *outbox.Record) { r.Status = outbox.StatusProcessing; r.Attempts++ })
}

func (s *memoryStore) MarkRetrying(_ context.Context, id uuid.UUID, lastError string) error {
	return s.update(id, func(r *outbox.Record) { r.Status = outbox.StatusEnqueued; r.LastError = &lastError })
}

func (s *memoryStore) MarkSucceeded(_ context.Context, id uuid.UUID) error {
	return s.update(id, func(r *outbox.Record) { r.Status = outbox.StatusSucceeded; r.LastError = nil })
}

func (s *memoryStore) MarkFailed(_ context.Context, id uuid.UUID, lastError string) error {
	return s.update(id, func(r *outbox.Record) { r.Status = outbox.StatusFailed; r.LastError = &lastError })
}

func (s *memoryStore) MarkSkipped(_ context.Context, id uuid.UUID, reason string) error {
	return s.update(id, func(r *outbox.Record) { r.Status = outbox.StatusSkipped; r.LastError = &reason })
}

func (s *memoryStore) byChannel(ch outbox.Channel) (outbox.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.Channel == ch {
			return *rec, true
		}
	}
	return outbox.Record{}, false
}

type recordingQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
	err error
}

func (q *recordingQueue) EnqueueDelivery(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

type fakeSender struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (s *fakeSender) SendLeadNotification(context.Context, string, email.LeadNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) >= s.calls {
		return s.errs[s.calls-1]
	}
	return nil
}

type fakeEvents struct {
	mu         sync.Mutex
	configured bool
	sent       []conversion.Event
	err        error
}

func (f *fakeEvents) Configured() bool { return f.configured }

func (f *fakeEvents) Send(_ context.Context, e conversion.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, e)
	return f.err
}

type leadMap map[uuid.UUID]domain.Lead

func (m leadMap) GetByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, ok := m[id]
	if !ok {
		return domain.Lead{}, domain.ErrNotFound
	}
	return lead, nil
}

type builderConfig struct{}

func (builderConfig) GetConversionCountryCode() string { return "uk" }
func (builderConfig) GetConversionCurrency() string    { return "GBP" }
func (builderConfig) GetConversionValue() float64      { return 0 }

func testLead() domain.Lead {
	return domain.Lead{
		ID:        uuid.New(),
		ChildName: "Max",
		FirstName: "Anna",
		LastName:  "Smith",
		Email:     "a@b.com",
		Phone:     "07911 123456",
		PostCode:  "SW1A 1AA",
		Age:       5,
		ImageURL:  "https://cdn.example/leads/1.jpg",
		Status:    domain.StatusNew,
	}
}

var errBoom = errors.New("boom")
