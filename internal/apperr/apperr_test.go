package apperr

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := Wrap(PortInUse, "start server", errors.New("port 8000 already registered"))

	if !errors.Is(err, ErrPortInUse) {
		t.Fatalf("expected %v to match ErrPortInUse", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("did not expect %v to match ErrNotFound", err)
	}
}

func TestIsThroughFmtWrap(t *testing.T) {
	inner := Wrap(CopyFailed, "copy project files", fs.ErrNotExist)
	outer := fmt.Errorf("build abc: %w", inner)

	if !errors.Is(outer, ErrCopyFailed) {
		t.Fatalf("expected wrapped error to match ErrCopyFailed")
	}
	if !errors.Is(outer, fs.ErrNotExist) {
		t.Fatalf("expected the os cause to stay reachable")
	}
	if got := KindOf(outer); got != CopyFailed {
		t.Errorf("KindOf = %q, want %q", got, CopyFailed)
	}
}

func TestErrorMessageNamesOpAndCause(t *testing.T) {
	err := &Error{Kind: InstallFailed, Op: "composer install", Err: errors.New("exit status 1"), Detail: "Your requirements could not be resolved"}
	msg := err.Error()

	for _, want := range []string{"composer install", "install failed", "exit status 1", "requirements could not be resolved"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q does not contain %q", msg, want)
		}
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(WriteFailed, "write", nil); err != nil {
		t.Fatalf("Wrap(nil) = %v, want nil", err)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
}
