package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	err := ErrNotFound("profile", "abc-123")
	want := "[not_found] NOT_FOUND: profile not found: abc-123"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := ErrStorage("query failed").WithCause(errors.New("disk full"))
	if wrapped.Error() != "[storage] STORAGE_FAILED: query failed (disk full)" {
		t.Errorf("Error() with cause = %q", wrapped.Error())
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := ErrInternal("X", "wrapped").WithCause(cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestDomainError_Is(t *testing.T) {
	a := ErrConflict(CodeNameTaken, "profile name already exists")
	b := ErrConflict(CodeNameTaken, "different message")
	c := ErrConflict(CodeBuiltinImmutable, "other code")

	if !errors.Is(a, b) {
		t.Error("errors with same category+code should match")
	}
	if errors.Is(a, c) {
		t.Error("errors with different codes should not match")
	}
}

func TestGetCategory(t *testing.T) {
	if got := GetCategory(ErrTimeout("slow")); got != ErrCatTimeout {
		t.Errorf("GetCategory = %s, want timeout", got)
	}
	if got := GetCategory(errors.New("plain")); got != ErrCatInternal {
		t.Errorf("GetCategory(plain) = %s, want internal", got)
	}
	wrapped := fmt.Errorf("context: %w", ErrNotFound("template", "t1"))
	if got := GetCategory(wrapped); got != ErrCatNotFound {
		t.Errorf("GetCategory(wrapped) = %s, want not_found", got)
	}
}

func TestWithDetail(t *testing.T) {
	err := ErrValidation(CodeInvalidConfig, "bad").WithDetail("field", "agent.steps")
	if err.Details["field"] != "agent.steps" {
		t.Errorf("Details = %v", err.Details)
	}
}
