package service

import (
	"context"
	"fmt"

	"talent_intake_backend/internal/leads/domain"
	"talent_intake_backend/internal/leads/repository"
)

// Deduplicator rejects a submission whose email or phone is already on file.
// It runs before any upload so a sequential duplicate has no side effects;
// the unique constraints on the table still catch concurrent ones.
type Deduplicator struct {
	checker repository.IdentityChecker
}

func NewDeduplicator(checker repository.IdentityChecker) *Deduplicator {
	return &Deduplicator{checker: checker}
}

// Check expects normalized values: lower-cased email and masked phone.
func (d *Deduplicator) Check(ctx context.Context, email, phone string) error {
	exists, err := d.checker.ExistsByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	if exists {
		return domain.ErrDuplicateLead
	}
	return nil
}
