package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("timer status %d out of range", 7), KindValidation},
		{"not found", NotFound("church %q", "kasiglahan"), KindNotFound},
		{"permission denied", PermissionDenied("cross-church access"), KindPermissionDenied},
		{"conflict", Conflict("email taken"), KindConflict},
		{"storage", Storage("insert user", errors.New("connection reset")), KindStorage},
		{"plain error", errors.New("something"), 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", Conflict("domain %q already registered", "sanjose"))
	if !IsKind(err, KindConflict) {
		t.Errorf("expected wrapped error to keep its kind, got %v", KindOf(err))
	}
}

func TestIs_MatchesByKind(t *testing.T) {
	err := Validation("bad status")
	if !errors.Is(err, Validation("")) {
		t.Error("errors.Is should match two validation errors")
	}
	if errors.Is(err, NotFound("")) {
		t.Error("errors.Is should not match across kinds")
	}
}

func TestStorage_Unwrap(t *testing.T) {
	cause := errors.New("no reachable servers")
	err := Storage("count members", cause)
	if !errors.Is(err, cause) {
		t.Error("expected Storage error to wrap its cause")
	}
}
