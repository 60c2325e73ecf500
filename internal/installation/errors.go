package installation

import "errors"

var (
	// ErrNotInstalled is returned when the home has no installation metadata.
	ErrNotInstalled = errors.New("installation not initialized")

	// ErrAlreadyInstalled is returned by Init on an initialized home.
	ErrAlreadyInstalled = errors.New("installation already initialized")

	// ErrStreamNotFound is returned for an unknown patch stream.
	ErrStreamNotFound = errors.New("patch stream not found")

	// ErrPatchNotFound is returned when no stream has the patch active.
	ErrPatchNotFound = errors.New("patch not found")

	// ErrAmbiguousPatch is returned when more than one stream has the patch active.
	ErrAmbiguousPatch = errors.New("patch is active in more than one stream")

	// ErrModificationInProgress is returned when a stream already has an open modification.
	ErrModificationInProgress = errors.New("another modification of the stream is in progress")

	// ErrTransactionClosed is returned when a committed or cancelled modification is used.
	ErrTransactionClosed = errors.New("modification already closed")
)
