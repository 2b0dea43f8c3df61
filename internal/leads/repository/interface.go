package repository

import (
	"context"
	"time"

	"talent_intake_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// IdentityChecker answers the duplicate pre-check.
type IdentityChecker interface {
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)
}

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]domain.Lead, error)
}

// LeadWriter provides the only two writes a lead ever sees.
type LeadWriter interface {
	Insert(ctx context.Context, lead domain.NewLead) (domain.Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Lead, error)
}

// StatsReader provides dashboard counts.
type StatsReader interface {
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
}

// LeadRepository composes every lead capability.
type LeadRepository interface {
	IdentityChecker
	LeadReader
	LeadWriter
	StatsReader
}

// ListParams bounds a listing by creation date. Zero values are open ends.
// To covers the whole day it names.
type ListParams struct {
	From time.Time
	To   time.Time
}

var _ LeadRepository = (*Repository)(nil)
