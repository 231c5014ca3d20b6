package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name        string
		err         error
		wantKind    Kind
		wantMessage string
	}{
		{"classified", E(NotFound, "order 7 not found"), NotFound, "order 7 not found"},
		{"wrapped_cause", Wrap(Unexpected, cause, "failed to query orders"), Unexpected, "failed to query orders"},
		{"behind_fmt_wrap", fmt.Errorf("handler: %w", E(Conflict, "retry")), Conflict, "retry"},
		{"plain_error", cause, Unexpected, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.wantKind {
				t.Errorf("KindOf = %s, want %s", got, tt.wantKind)
			}
			if got := MessageOf(tt.err); got != tt.wantMessage {
				t.Errorf("MessageOf = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestErrorMatching(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(InvalidArgument, cause, "Email is already registered.")

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable")
	}
	if !errors.Is(err, E(InvalidArgument, "")) {
		t.Error("kind-only target did not match")
	}
	if errors.Is(err, E(InvalidArgument, "other")) {
		t.Error("different message matched")
	}
	if errors.Is(err, E(NotFound, "")) {
		t.Error("different kind matched")
	}
	if got := err.Error(); got != "Email is already registered.: duplicate key" {
		t.Errorf("Error() = %q", got)
	}
}

func TestKindString(t *testing.T) {
	if got := InvalidCancellation.String(); got != "INVALID_CANCELLATION" {
		t.Errorf("String() = %q", got)
	}
	if got := Kind(100).String(); got != "UNEXPECTED" {
		t.Errorf("unknown kind String() = %q, want UNEXPECTED", got)
	}
}
