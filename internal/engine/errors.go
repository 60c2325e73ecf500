package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danieljhkim/patchkit/internal/content"
)

var (
	// ErrConflict indicates content conflicts the policy did not resolve.
	ErrConflict = errors.New("conflict detected")

	// ErrNotLatestPatch indicates a rollback of a patch that is not the newest one.
	ErrNotLatestPatch = errors.New("patch is not the latest applied patch")

	// ErrAlreadyApplied indicates the patch is already active.
	ErrAlreadyApplied = errors.New("patch already applied")

	// ErrNoMetadata indicates the patch source holds neither patch.xml nor patches.xml.
	ErrNoMetadata = errors.New("no patch metadata found")

	// ErrResultClosed indicates a result that was already committed or closed.
	ErrResultClosed = errors.New("patching result already closed")
)

// ConflictError lists the items whose content conflicts with a patch.
type ConflictError struct {
	PatchID string
	Items   []content.Item
}

func (e *ConflictError) Error() string {
	names := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		names = append(names, item.String())
	}
	return fmt.Sprintf("%s: %s has %d conflicting items: %s", ErrConflict, e.PatchID, len(e.Items), strings.Join(names, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// PatchingError is returned by failed apply and rollback operations. The
// transaction of the operation has been cancelled when it is returned.
type PatchingError struct {
	Op      string
	PatchID string
	Err     error
}

func (e *PatchingError) Error() string {
	if e.PatchID == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.PatchID, e.Err)
}

func (e *PatchingError) Unwrap() error {
	return e.Err
}

// wrapError wraps err into a PatchingError unless it already is one.
func wrapError(op, patchID string, err error) error {
	var pe *PatchingError
	if errors.As(err, &pe) {
		return err
	}
	return &PatchingError{Op: op, PatchID: patchID, Err: err}
}
