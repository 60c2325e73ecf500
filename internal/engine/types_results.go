package engine

import (
	"context"
	"time"
)

// PatchInfo describes the patch an operation worked on.
type PatchInfo struct {
	ID            string   `json:"id"`
	Type          string   `json:"type,omitempty"`
	Description   string   `json:"description,omitempty"`
	Stream        string   `json:"stream"`
	VersionBefore string   `json:"versionBefore"`
	VersionAfter  string   `json:"versionAfter"`
	Invalidated   []string `json:"invalidated,omitempty"`
	RolledBack    []string `json:"rolledBack,omitempty"`
}

// PatchingResult is the outcome of an apply or rollback. It owns the
// modification the operation ran in: Commit makes the changes permanent and
// Close cancels them unless Commit succeeded. Callers should defer Close.
type PatchingResult struct {
	// PatchID is the applied or rolled back patch (empty for bundles)
	PatchID string

	// Info describes the operation
	Info PatchInfo

	// Tasks is the number of executed tasks
	Tasks int

	// Entries are the results of the applied bundle entries, in order
	Entries []*PatchingResult

	// Skipped are bundle entries that were already applied
	Skipped []string

	commit    func() error
	cancel    func() error
	rollback  func(ctx context.Context) error
	closed    bool
	committed bool
}

// Commit makes the changes permanent. Committing twice is a no-op.
func (r *PatchingResult) Commit() error {
	if r.closed {
		if r.committed {
			return nil
		}
		return ErrResultClosed
	}
	if r.commit != nil {
		if err := r.commit(); err != nil {
			return err
		}
	}
	r.closed = true
	r.committed = true
	return nil
}

// Close cancels the changes unless they were committed.
func (r *PatchingResult) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.cancel != nil {
		return r.cancel()
	}
	return nil
}

// IsCommitted reports whether Commit succeeded.
func (r *PatchingResult) IsCommitted() bool {
	return r.committed
}

// Rollback reverts a committed result in a new transaction and commits the
// rollback. An uncommitted result is cancelled instead.
func (r *PatchingResult) Rollback(ctx context.Context) error {
	if !r.committed {
		return r.Close()
	}
	if r.rollback == nil {
		return nil
	}
	return r.rollback(ctx)
}

// HistoryEntry describes one patch in the history of a stream.
type HistoryEntry struct {
	PatchID       string    `json:"patchId"`
	Type          string    `json:"type"`
	Description   string    `json:"description,omitempty"`
	AppliedAt     time.Time `json:"appliedAt"`
	Active        bool      `json:"active"`
	VersionBefore string    `json:"versionBefore"`
	VersionAfter  string    `json:"versionAfter"`
	Invalidated   []string  `json:"invalidated,omitempty"`
}

// StreamHistory is the history of one stream, newest patch first.
type StreamHistory struct {
	Stream  string         `json:"stream"`
	Version string         `json:"version"`
	Entries []HistoryEntry `json:"entries"`
}

// HistoryResult represents the patch history of an installation.
type HistoryResult struct {
	Streams []StreamHistory `json:"streams"`
}

// StreamInfo describes the current state of a stream.
type StreamInfo struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Patches []string `json:"patches"`
}

// InfoResult describes an installation.
type InfoResult struct {
	Name    string       `json:"name"`
	Home    string       `json:"home"`
	Streams []StreamInfo `json:"streams"`
}
