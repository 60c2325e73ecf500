package patch

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// BundleElement names one patch of a bundle and its location inside the bundle.
type BundleElement struct {
	ID   string `xml:"id,attr"`
	Path string `xml:"path,attr"`
}

// Bundle is an ordered sequence of patches applied one after another.
type Bundle struct {
	Elements []BundleElement
}

// ParseBundle reads a bundle manifest from r.
func ParseBundle(r io.Reader) (*Bundle, error) {
	var doc xmlBundle
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse bundle manifest: %w", err)
	}
	if len(doc.Elements) == 0 {
		return nil, ErrEmptyBundle
	}

	seen := make(map[string]bool, len(doc.Elements))
	for _, e := range doc.Elements {
		if e.ID == "" || e.Path == "" {
			return nil, fmt.Errorf("%w: bundle element needs id and path", ErrInvalidMetadata)
		}
		if err := validateIdentifier("bundle element id", e.ID); err != nil {
			return nil, err
		}
		if err := validateRelPath(e.Path); err != nil {
			return nil, err
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("%w: duplicate bundle element %s", ErrInvalidMetadata, e.ID)
		}
		seen[e.ID] = true
	}
	return &Bundle{Elements: doc.Elements}, nil
}

// ParseBundleFile reads a bundle manifest from a file.
func ParseBundleFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle manifest: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ParseBundle(f)
}
