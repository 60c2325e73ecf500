package engine

// ApplyRequest represents a request to apply a patch or patch bundle.
type ApplyRequest struct {
	// Source provides the patch content
	Source Source

	// Policy resolves content conflicts (default: fail on any conflict)
	Policy VerificationPolicy
}

// RollbackRequest represents a request to roll back a patch.
type RollbackRequest struct {
	// PatchID is the patch to roll back
	PatchID string

	// Policy resolves content conflicts (default: fail on any conflict)
	Policy VerificationPolicy

	// RollbackTo also rolls back every patch applied after PatchID
	RollbackTo bool

	// ResetConfiguration restores the configuration backed up when the
	// oldest rolled back patch was applied
	ResetConfiguration bool
}

// HistoryRequest represents a request for the patch history of a stream.
type HistoryRequest struct {
	// Stream is the stream name (empty: all streams)
	Stream string
}
