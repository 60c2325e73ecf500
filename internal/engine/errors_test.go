package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/danieljhkim/patchkit/internal/content"
)

func TestWrapError(t *testing.T) {
	base := errors.New("disk full")

	err := wrapError("apply", "one-off-1", base)
	var pe *PatchingError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PatchingError, got %T", err)
	}
	if pe.Op != "apply" || pe.PatchID != "one-off-1" {
		t.Errorf("PatchingError = %+v", pe)
	}
	if !errors.Is(err, base) {
		t.Error("expected the cause to be preserved")
	}

	if again := wrapError("bundle", "other", err); again != err {
		t.Errorf("expected PatchingError not to be wrapped twice, got %v", again)
	}
}

func TestConflictError(t *testing.T) {
	err := &ConflictError{
		PatchID: "one-off-1",
		Items:   []content.Item{content.NewMiscItem("bin/run.sh", nil, false, false)},
	}
	if !errors.Is(err, ErrConflict) {
		t.Error("expected ConflictError to match ErrConflict")
	}
	if !strings.Contains(err.Error(), "bin/run.sh") {
		t.Errorf("Error() = %q, want it to name the item", err.Error())
	}
}
