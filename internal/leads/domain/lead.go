// Package domain provides core business rules for the leads bounded context.
package domain

import (
	"time"

	"talent_intake_backend/platform/apperr"

	"github.com/google/uuid"
)

// Status is the operator-facing lifecycle of an application.
type Status string

const (
	StatusNew         Status = "new"
	StatusContacted   Status = "contacted"
	StatusShortlisted Status = "shortlisted"
	StatusRejected    Status = "rejected"
)

// Statuses lists every valid status in pipeline order.
var Statuses = []Status{StatusNew, StatusContacted, StatusShortlisted, StatusRejected}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

var (
	// ErrDuplicateLead is returned when an application already exists for the
	// submitted email or phone, whether caught by the pre-check or by the
	// storage-level unique constraints.
	ErrDuplicateLead = apperr.Conflict("An application with this email or phone number already exists")
	// ErrNotFound is returned when a lead id does not exist.
	ErrNotFound = apperr.NotFound("lead not found")
	// ErrInvalidStatus is returned for a status outside Statuses.
	ErrInvalidStatus = apperr.Validation("invalid lead status")
)

// Lead is a persisted application. Only Status and UpdatedAt change after insert.
type Lead struct {
	ID        uuid.UUID
	ChildName string
	FirstName string
	LastName  string
	Gender    string
	Email     string
	Phone     string
	PostCode  string
	Age       int
	ImageURL  string
	ImageKey  string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Applicant is the normalized intake record before it has an id.
type Applicant struct {
	ChildName string
	FirstName string
	LastName  string
	Gender    string
	Email     string
	Phone     string
	PostCode  string
	Age       int
}

// NewLead is what the store inserts: an applicant plus its stored image.
type NewLead struct {
	Applicant
	ImageURL string
	ImageKey string
}

// DisplayName returns the child name, falling back to the guardian's first name.
func (l Lead) DisplayName() string {
	if l.ChildName != "" {
		return l.ChildName
	}
	return l.FirstName
}
