package content

import "fmt"

// ModificationType is the kind of change a modification makes.
type ModificationType string

const (
	ModificationAdd    ModificationType = "add"
	ModificationRemove ModificationType = "remove"
	ModificationModify ModificationType = "modify"
)

// Modification describes a change to one content item.
type Modification struct {
	// Item is the content after the modification
	Item Item `json:"item"`

	// TargetHash is the hash expected on disk before the modification
	TargetHash Hash `json:"targetHash"`

	// Type is the modification type
	Type ModificationType `json:"type"`

	// Condition gates whether the modification applies (nil applies always)
	Condition *Condition `json:"condition,omitempty"`
}

// NewModification creates a new Modification.
func NewModification(item Item, targetHash []byte, modType ModificationType, cond *Condition) Modification {
	return Modification{
		Item:       item,
		TargetHash: Hash(targetHash),
		Type:       modType,
		Condition:  cond,
	}
}

// String returns a human-readable description of the modification.
func (m Modification) String() string {
	return fmt.Sprintf("%s %s", m.Type, m.Item)
}

// Condition restricts a modification to installations that contain given misc paths.
type Condition struct {
	// Requires lists slash separated misc paths that must exist
	Requires []string `json:"requires,omitempty"`
}

// IsSatisfied reports whether all required paths exist.
func (c *Condition) IsSatisfied(exists func(item Item) bool) bool {
	if c == nil {
		return true
	}
	for _, p := range c.Requires {
		if !exists(NewMiscItem(p, nil, false, false)) {
			return false
		}
	}
	return true
}

// Entry is a modification tagged with the patch that produced it.
type Entry struct {
	PatchID      string
	Modification Modification
}

// NewEntry creates a new Entry.
func NewEntry(patchID string, mod Modification) Entry {
	return Entry{PatchID: patchID, Modification: mod}
}

// Item returns the entry's content item.
func (e Entry) Item() Item {
	return e.Modification.Item
}

// TargetHash returns the hash the entry expects before it is applied.
func (e Entry) TargetHash() Hash {
	return e.Modification.TargetHash
}
