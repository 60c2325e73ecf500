package state

import (
	"time"

	"github.com/danieljhkim/patchkit/internal/content"
)

// Patch types recorded in history.
const (
	PatchOneOff     = "one-off"
	PatchCumulative = "cumulative"
)

// InstallationState is the authoritative record of what patchkit has
// modified in an installation.
type InstallationState struct {
	// Name is the product name
	Name string `toml:"name"`

	// Streams holds the patch streams of the installation
	Streams []*StreamState `toml:"stream"`
}

// StreamState tracks one independently versioned patch stream.
type StreamState struct {
	// Name is the stream name
	Name string `toml:"name"`

	// Version is the installed version of the stream
	Version string `toml:"version"`

	// Patches lists the active patches, oldest first
	Patches []string `toml:"patches"`

	// Applied is the application log of every patch that still has history,
	// including one-offs invalidated by a cumulative patch, oldest first
	Applied []string `toml:"applied"`
}

// PatchRecord is the history of one applied patch.
type PatchRecord struct {
	// PatchID is the patch identifier
	PatchID string `json:"patchId"`

	// Type is PatchOneOff or PatchCumulative
	Type string `json:"type"`

	// Description is the patch description
	Description string `json:"description,omitempty"`

	// AppliedAt is when the patch was committed
	AppliedAt time.Time `json:"appliedAt"`

	// Transaction is the id of the transaction that applied the patch
	Transaction string `json:"transaction"`

	// VersionBefore is the stream version before the patch
	VersionBefore string `json:"versionBefore"`

	// VersionAfter is the stream version after the patch
	VersionAfter string `json:"versionAfter"`

	// Invalidated lists the one-off patches this cumulative patch deactivated
	Invalidated []string `json:"invalidated,omitempty"`

	// Modifications are the modifications declared by the patch
	Modifications []content.Modification `json:"modifications"`

	// Rollback are the entries that reverse what the patch did
	Rollback []content.Modification `json:"rollback"`

	// ConfigurationBackup marks records that carry a configuration backup
	ConfigurationBackup bool `json:"configurationBackup,omitempty"`
}

// NewInstallationState creates a new installation with a single stream.
func NewInstallationState(name, stream, version string) *InstallationState {
	return &InstallationState{
		Name:    name,
		Streams: []*StreamState{NewStreamState(stream, version)},
	}
}

// NewStreamState creates a new stream without patches.
func NewStreamState(name, version string) *StreamState {
	return &StreamState{
		Name:    name,
		Version: version,
		Patches: []string{},
		Applied: []string{},
	}
}

// Stream returns the named stream, or nil.
func (s *InstallationState) Stream(name string) *StreamState {
	for _, st := range s.Streams {
		if st.Name == name {
			return st
		}
	}
	return nil
}

// StreamsWithPatch returns the streams that hold patchID as an active patch.
func (s *InstallationState) StreamsWithPatch(patchID string) []*StreamState {
	var found []*StreamState
	for _, st := range s.Streams {
		if st.IsActive(patchID) {
			found = append(found, st)
		}
	}
	return found
}
