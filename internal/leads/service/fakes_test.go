package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"talent_intake_backend/internal/events"
	"talent_intake_backend/internal/leads/domain"
	"talent_intake_backend/internal/leads/repository"
	"talent_intake_backend/internal/leads/store"
	"talent_intake_backend/internal/media"
	"talent_intake_backend/internal/notification"
	"talent_intake_backend/internal/notification/outbox"
	"talent_intake_backend/platform/logger"
	"talent_intake_backend/platform/validator"

	"github.com/google/uuid"
)

type memoryRepo struct {
	mu         sync.Mutex
	leads      []domain.Lead
	skipCheck  bool
	insertErr  error
	checkCalls int
}

func (r *memoryRepo) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkCalls++
	if r.skipCheck {
		return false, nil
	}
	for _, l := range r.leads {
		if l.Email == email || l.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) Insert(_ context.Context, n domain.NewLead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return domain.Lead{}, r.insertErr
	}
	for _, l := range r.leads {
		if l.Email == n.Email || l.Phone == n.Phone {
			return domain.Lead{}, domain.ErrDuplicateLead.WithOp("leads.Insert")
		}
	}
	now := time.Now().UTC()
	lead := domain.Lead{
		ID:        uuid.New(),
		ChildName: n.ChildName,
		FirstName: n.FirstName,
		LastName:  n.LastName,
		Gender:    n.Gender,
		Email:     n.Email,
		Phone:     n.Phone,
		PostCode:  n.PostCode,
		Age:       n.Age,
		ImageURL:  n.ImageURL,
		ImageKey:  n.ImageKey,
		Status:    domain.StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.leads = append(r.leads, lead)
	return lead, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Lead{}, domain.ErrNotFound
}

func (r *memoryRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Lead, error) {
	var out []domain.Lead
	for _, id := range ids {
		if l, err := r.GetByID(ctx, id); err == nil {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memoryRepo) List(_ context.Context, p repository.ListParams) ([]domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Lead
	for _, l := range r.leads {
		if !p.From.IsZero() && l.CreatedAt.Before(p.From) {
			continue
		}
		if !p.To.IsZero() && !l.CreatedAt.Before(p.To.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.Status) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.leads {
		if r.leads[i].ID == id {
			r.leads[i].Status = status
			return r.leads[i], nil
		}
	}
	return domain.Lead{}, domain.ErrNotFound
}

func (r *memoryRepo) CountByStatus(context.Context) (map[domain.Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[domain.Status]int{}
	for _, l := range r.leads {
		out[l.Status]++
	}
	return out, nil
}

type memoryStore struct {
	repo      *memoryRepo
	uploads   []media.File
	discarded []store.StoredMedia
	uploadErr error
}

func (s *memoryStore) ValidateImage(contentType string, size int64) error {
	switch contentType {
	case "image/jpeg", "image/png", "image/heic":
	default:
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	if size > 1<<20 {
		return errors.New("file too large")
	}
	return nil
}

func (s *memoryStore) Upload(_ context.Context, f media.File) (store.StoredMedia, error) {
	if s.uploadErr != nil {
		return store.StoredMedia{}, s.uploadErr
	}
	s.uploads = append(s.uploads, f)
	key := "applications/" + f.Name
	return store.StoredMedia{Key: key, URL: "https://cdn.example/leads/" + key}, nil
}

func (s *memoryStore) Insert(ctx context.Context, a domain.Applicant, m store.StoredMedia) (domain.Lead, error) {
	return s.repo.Insert(ctx, domain.NewLead{Applicant: a, ImageURL: m.URL, ImageKey: m.Key})
}

func (s *memoryStore) Discard(_ context.Context, m store.StoredMedia) error {
	s.discarded = append(s.discarded, m)
	return nil
}

type renamingNormalizer struct{}

func (renamingNormalizer) Normalize(_ context.Context, f media.File) media.Result {
	if f.ContentType == media.ContentTypeHEIC {
		return media.Result{File: media.File{Name: "1-abcd1234.jpg", ContentType: media.ContentTypeJPEG, Data: f.Data}, Converted: true}
	}
	f.Name = "1-abcd1234" + f.Ext()
	return media.Result{File: f}
}

type recordingNotifier struct {
	calls []notification.NotifyOptions
	leads []domain.Lead
}

func (n *recordingNotifier) Notify(_ context.Context, lead domain.Lead, opts notification.NotifyOptions) notification.Receipt {
	n.calls = append(n.calls, opts)
	n.leads = append(n.leads, lead)
	eventID := opts.EventID
	if eventID == "" {
		eventID = "evt-generated"
	}
	receipt := notification.Receipt{EventID: eventID}
	if pe, err := opts.Pixel.Track(eventID, "GBP", 0); err == nil {
		receipt.Pixel = &pe
	}
	return receipt
}

type stubMailer struct {
	calls int
	err   error
}

func (m *stubMailer) Send(context.Context, domain.Lead) error {
	m.calls++
	return m.err
}

type stubDeliveries struct {
	records []outbox.Record
}

func (d stubDeliveries) ListByLead(context.Context, uuid.UUID) ([]outbox.Record, error) {
	return d.records, nil
}

type intakeConfig struct {
	deleteOrphans bool
}

func (intakeConfig) GetIntakeMinAge() int           { return 3 }
func (intakeConfig) GetIntakeMaxAge() int           { return 17 }
func (c intakeConfig) GetDeleteOrphanedMedia() bool { return c.deleteOrphans }
func (intakeConfig) GetMediaJPEGQuality() int       { return 80 }
func (intakeConfig) GetMediaMaxDimension() int      { return 4096 }

type fixture struct {
	repo     *memoryRepo
	store    *memoryStore
	notifier *recordingNotifier
	mailer   *stubMailer
	bus      *events.InMemoryBus
	svc      *Service

	mu        sync.Mutex
	published []events.Event
}

func newFixture(cfg intakeConfig) *fixture {
	repo := &memoryRepo{}
	f := &fixture{
		repo:     repo,
		store:    &memoryStore{repo: repo},
		notifier: &recordingNotifier{},
		mailer:   &stubMailer{},
		bus:      events.NewInMemoryBus(logger.NewDiscard()),
	}
	record := events.HandlerFunc(func(_ context.Context, e events.Event) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.published = append(f.published, e)
		return nil
	})
	f.bus.Subscribe(events.LeadSubmitted{}.EventName(), record)
	f.bus.Subscribe(events.LeadStatusChanged{}.EventName(), record)

	f.svc = New(Deps{
		Repo:       repo,
		Store:      f.store,
		Normalizer: renamingNormalizer{},
		Notifier:   f.notifier,
		Mailer:     f.mailer,
		Deliveries: stubDeliveries{},
		Validator:  validator.New(),
		EventBus:   f.bus,
		PixelID:    "px-1",
		Config:     cfg,
		Log:        logger.NewDiscard(),
	})
	return f
}

func (f *fixture) publishedEvents() []events.Event {
	f.bus.Wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.Event(nil), f.published...)
}

// eventsOf returns the published events of type T. The bus delivers on
// separate goroutines, so publication order is not preserved.
func eventsOf[T events.Event](f *fixture) []T {
	var out []T
	for _, e := range f.publishedEvents() {
		if typed, ok := e.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

func jpegUpload() *media.File {
	return &media.File{Name: "IMG_0001.JPG", ContentType: "image/jpeg", Data: []byte("\xff\xd8\xff\xe0jpeg")}
}
