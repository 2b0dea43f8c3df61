package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Internal("x"), http.StatusInternalServerError},
		{Unavailable("x"), http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("kind %d: expected %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestSentinelMatchesAfterWithOp(t *testing.T) {
	sentinel := Conflict("duplicate")
	wrapped := fmt.Errorf("insert: %w", sentinel.WithOp("leads.Insert"))

	if !errors.Is(wrapped, sentinel) {
		t.Fatal("expected errors.Is to match sentinel through WithOp and fmt wrapping")
	}
	if sentinel.Op != "" {
		t.Fatal("WithOp must not mutate the sentinel")
	}
	if GetKind(wrapped) != KindConflict {
		t.Fatalf("expected conflict kind, got %d", GetKind(wrapped))
	}
}
