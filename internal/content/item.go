package content

import (
	"fmt"
	"strings"
)

// Type is the kind of content an item describes.
type Type string

const (
	TypeMisc   Type = "misc"
	TypeModule Type = "module"
	TypeBundle Type = "bundle"
)

// DefaultSlot is the slot assumed for modules and bundles that do not name one.
const DefaultSlot = "main"

// Item identifies a single patchable unit of an installation.
type Item struct {
	// Type is the content type
	Type Type `json:"type"`

	// Name is the file name for misc items, the module or bundle name otherwise
	Name string `json:"name"`

	// Path is the parent directory of a misc item, as path segments
	Path []string `json:"path,omitempty"`

	// Slot is the module or bundle slot
	Slot string `json:"slot,omitempty"`

	// Directory marks misc items that are directories
	Directory bool `json:"directory,omitempty"`

	// AffectsRuntime marks misc items the running server depends on
	AffectsRuntime bool `json:"affectsRuntime,omitempty"`

	// Hash is the hash of the item's content, empty if the content is absent
	Hash Hash `json:"hash"`
}

// NewMiscItem creates a misc item from a slash separated relative path.
func NewMiscItem(relPath string, hash []byte, directory, affectsRuntime bool) Item {
	segments := SplitPath(relPath)
	name := ""
	var parent []string
	if len(segments) > 0 {
		name = segments[len(segments)-1]
		parent = segments[:len(segments)-1]
	}
	return Item{
		Type:           TypeMisc,
		Name:           name,
		Path:           parent,
		Directory:      directory,
		AffectsRuntime: affectsRuntime,
		Hash:           Hash(hash),
	}
}

// NewModuleItem creates a module item.
func NewModuleItem(name, slot string, hash []byte) Item {
	return Item{
		Type: TypeModule,
		Name: name,
		Slot: slotOrDefault(slot),
		Hash: Hash(hash),
	}
}

// NewBundleItem creates a bundle item.
func NewBundleItem(name, slot string, hash []byte) Item {
	return Item{
		Type: TypeBundle,
		Name: name,
		Slot: slotOrDefault(slot),
		Hash: Hash(hash),
	}
}

// RelativePath returns the slash separated path of a misc item.
func (i Item) RelativePath() string {
	if len(i.Path) == 0 {
		return i.Name
	}
	return strings.Join(i.Path, "/") + "/" + i.Name
}

// WithHash returns a copy of the item carrying a different content hash.
func (i Item) WithHash(hash []byte) Item {
	c := i
	c.Path = append([]string(nil), i.Path...)
	c.Hash = Hash(hash)
	return c
}

// Location returns the identity of the item.
func (i Item) Location() Location {
	return NewLocation(i)
}

// String returns a human-readable description of the item.
func (i Item) String() string {
	switch i.Type {
	case TypeMisc:
		return fmt.Sprintf("misc:%s", i.RelativePath())
	default:
		return fmt.Sprintf("%s:%s:%s", i.Type, i.Name, i.Slot)
	}
}

// SplitPath splits a slash separated relative path into its segments.
func SplitPath(relPath string) []string {
	var segments []string
	for _, s := range strings.Split(strings.ReplaceAll(relPath, "\\", "/"), "/") {
		if s != "" && s != "." {
			segments = append(segments, s)
		}
	}
	return segments
}

func slotOrDefault(slot string) string {
	if slot == "" {
		return DefaultSlot
	}
	return slot
}
