package conversion

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"talent_intake_backend/platform/phone"
	"talent_intake_backend/platform/postcode"
)

const (
	DefaultCountryCode = "uk"
	DefaultCurrency    = "GBP"
)

// BuilderConfig provides the values injected into every event.
type BuilderConfig interface {
	GetConversionCountryCode() string
	GetConversionCurrency() string
	GetConversionValue() float64
}

// Builder maps input to a Conversions API event. It is deterministic apart
// from the event time.
type Builder struct {
	country  string
	currency string
	value    float64
	now      func() time.Time
}

func NewBuilder(cfg BuilderConfig) *Builder {
	country := strings.ToLower(strings.TrimSpace(cfg.GetConversionCountryCode()))
	if country == "" {
		country = DefaultCountryCode
	}
	currency := strings.TrimSpace(cfg.GetConversionCurrency())
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Builder{
		country:  country,
		currency: currency,
		value:    cfg.GetConversionValue(),
		now:      time.Now,
	}
}

// Currency returns the configured currency code.
func (b *Builder) Currency() string { return b.currency }

// Value returns the configured conversion value.
func (b *Builder) Value() float64 { return b.value }

// Build creates the event. The country digest is always present.
func (b *Builder) Build(in Input, eventID, sourceURL string) Event {
	return Event{
		EventName:      EventNameLead,
		EventTime:      b.now().Unix(),
		EventID:        eventID,
		EventSourceURL: sourceURL,
		ActionSource:   ActionSourceWebsite,
		UserData: UserData{
			Email:     hashField(normalizeEmail(in.Email)),
			Phone:     hashField(phone.Digits(in.Phone)),
			FirstName: hashField(normalizeName(in.FirstName)),
			LastName:  hashField(normalizeName(in.LastName)),
			City:      []string{},
			State:     []string{},
			Zip:       hashField(postcode.Compact(in.PostCode)),
			Country:   []string{Hash(b.country)},
		},
		CustomData: CustomData{
			ChildName: in.ChildName,
			Gender:    in.Gender,
			Age:       in.Age,
			Currency:  b.currency,
			Value:     b.value,
		},
	}
}

// Hash returns the lowercase hex SHA-256 digest of value.
func Hash(value string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(value)))
}

// hashField returns a one-element digest list, or an empty list when the
// normalized value is empty.
func hashField(normalized string) []string {
	if normalized == "" {
		return []string{}
	}
	return []string{Hash(normalized)}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
