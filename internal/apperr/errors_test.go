package apperr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := NotFound(fs.ErrNotExist)
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("expected errors.Is to match ErrNotFound")
	}
	if errors.Is(err, ErrForbidden) {
		t.Error("not found must not match forbidden")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("cause should be reachable through Unwrap")
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("vault: get file: %w", Forbidden(errors.New("escape")))
	if got := KindOf(err); got != KindForbidden {
		t.Errorf("KindOf = %q, want %q", got, KindForbidden)
	}
	if got := Message(err); got != "access denied" {
		t.Errorf("Message = %q", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("disk on fire")
	if got := KindOf(err); got != KindInternal {
		t.Errorf("KindOf = %q, want %q", got, KindInternal)
	}
	if got := Message(err); got != ErrInternal.Message {
		t.Errorf("Message = %q", got)
	}
}

func TestForbiddenMessageHidesCause(t *testing.T) {
	err := Forbidden(errors.New("/srv/secret/outside.md"))
	if Message(err) != "access denied" {
		t.Errorf("client message leaked cause: %q", Message(err))
	}
}
