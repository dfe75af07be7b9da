package services_test

import (
	"errors"
	"strings"
	"testing"

	"rcjk/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "gitrepo", "push", "failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"gitrepo", "push", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestTypedErrorsMatchMarkers(t *testing.T) {
	cause := errors.New("XML syntax error on line 1")
	tests := []struct {
		name   string
		err    error
		marker error
		kind   string
	}{
		{"parse", &services.ParseError{Err: cause}, services.ErrParse, "parse_error"},
		{"validation", &services.ValidationError{Field: "name", Message: "missing"}, services.ErrValidation, "validation_error"},
		{"duplicate", &services.DuplicateNameError{Kind: "deep_component", Name: "DC1"}, services.ErrDuplicateName, "duplicate_name"},
		{"locked", &services.AlreadyLockedError{Kind: "atomic_element", Name: "line", LockedBy: "alice"}, services.ErrAlreadyLocked, "already_locked"},
		{"not owner", &services.NotLockedByUserError{Kind: "atomic_element", Name: "line", Username: "bob"}, services.ErrNotLockedByUser, "not_locked_by_user"},
		{"not found", services.Wrap(services.ErrNotFound, "store", "get", "glif 3", nil), services.ErrNotFound, "not_found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.marker) {
				t.Fatalf("expected %v to match marker %v", tc.err, tc.marker)
			}
			if got := services.Kind(tc.err); got != tc.kind {
				t.Fatalf("Kind() = %q, want %q", got, tc.kind)
			}
		})
	}
}

func TestParseErrorKeepsCause(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &services.ParseError{Err: cause}
	if !errors.Is(err, cause) {
		t.Fatal("expected parse error to unwrap to its cause")
	}
	var target *services.ParseError
	if !errors.As(errors.Join(errors.New("other"), err), &target) {
		t.Fatal("expected errors.As to find ParseError")
	}
}

func TestKindUnknown(t *testing.T) {
	if got := services.Kind(errors.New("boom")); got != "internal" {
		t.Fatalf("expected internal kind, got %q", got)
	}
	if got := services.Kind(nil); got != "" {
		t.Fatalf("expected empty kind for nil, got %q", got)
	}
}
