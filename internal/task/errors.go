package task

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/patchkit/internal/content"
)

// ErrWrongContent is returned when installed content does not hash to the
// value the modification promised.
var ErrWrongContent = errors.New("installed content does not match the patch")

// ContentMismatchError describes content that hashed to an unexpected value.
type ContentMismatchError struct {
	Item     content.Item
	Expected content.Hash
	Actual   content.Hash
}

func (e *ContentMismatchError) Error() string {
	return fmt.Sprintf("content of %s hashes to %q, expected %q", e.Item, e.Actual, e.Expected)
}

func (e *ContentMismatchError) Unwrap() error {
	return ErrWrongContent
}
