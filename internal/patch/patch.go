// Package patch models patch metadata and reads it from patch.xml and
// patches.xml documents.
package patch

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/patchkit/internal/content"
)

// Metadata file names inside a patch.
const (
	MetadataFile = "patch.xml"
	BundleFile   = "patches.xml"
)

var (
	// ErrVersionMismatch is returned when a patch does not apply to the
	// installed version and carries no metadata for it.
	ErrVersionMismatch = errors.New("patch does not apply to the installed version")

	// ErrEmptyBundle is returned for a bundle manifest without elements.
	ErrEmptyBundle = errors.New("patch bundle contains no patches")

	// ErrInvalidMetadata is returned for structurally invalid metadata.
	ErrInvalidMetadata = errors.New("invalid patch metadata")
)

// Type is the kind of patch.
type Type string

const (
	// OneOff patches apply on top of a version without changing it.
	OneOff Type = "one-off"

	// Cumulative patches upgrade the stream to a new version and
	// supersede the active one-off patches.
	Cumulative Type = "cumulative"
)

// Patch is the parsed metadata of a single patch.
type Patch struct {
	// ID is the unique patch identifier
	ID string

	// Description is a human-readable description
	Description string

	// Stream is the name of the identity the patch targets
	Stream string

	// AppliesTo is the version the patch was built against
	AppliesTo string

	// Type is OneOff or Cumulative
	Type Type

	// ResultingVersion is the version after a cumulative patch
	ResultingVersion string

	// Modifications are the content modifications of the patch
	Modifications []content.Modification
}

// IsCumulative reports whether the patch upgrades the stream version.
func (p *Patch) IsCumulative() bool {
	return p.Type == Cumulative
}

// TargetVersion returns the stream version after the patch is applied.
func (p *Patch) TargetVersion() string {
	if p.IsCumulative() {
		return p.ResultingVersion
	}
	return p.AppliesTo
}

// String returns a human-readable description of the patch.
func (p *Patch) String() string {
	return fmt.Sprintf("%s (%s, %s %s)", p.ID, p.Type, p.Stream, p.AppliesTo)
}
