package domain

import (
	"errors"
	"testing"

	"talent_intake_backend/platform/apperr"
)

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if Status("archived").Valid() {
		t.Fatal("expected unknown status to be invalid")
	}
}

func TestDuplicateLeadMatchesAfterWithOp(t *testing.T) {
	err := ErrDuplicateLead.WithOp("leads.Insert")
	if !errors.Is(err, ErrDuplicateLead) {
		t.Fatal("expected errors.Is to match the sentinel after WithOp")
	}
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict kind, got %v", apperr.GetKind(err))
	}
}

func TestDisplayNameFallsBackToFirstName(t *testing.T) {
	if got := (Lead{FirstName: "Sam"}).DisplayName(); got != "Sam" {
		t.Fatalf("expected fallback to first name, got %q", got)
	}
	if got := (Lead{ChildName: "Max", FirstName: "Sam"}).DisplayName(); got != "Max" {
		t.Fatalf("expected child name, got %q", got)
	}
}
