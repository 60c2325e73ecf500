package content

import "strings"

// Location identifies a content item independently of its content, so that
// modifications of the same target made by different patches can be matched.
// Locations are comparable and usable as map keys.
type Location struct {
	Type Type
	Name string
	// Path is the relative directory of misc items, the slot for modules and bundles
	Path string
}

// NewLocation derives the location of an item.
func NewLocation(item Item) Location {
	switch item.Type {
	case TypeMisc:
		return Location{Type: item.Type, Name: item.Name, Path: strings.Join(item.Path, "/")}
	default:
		return Location{Type: item.Type, Name: item.Name, Path: item.Slot}
	}
}

// String returns a stable key for the location.
func (l Location) String() string {
	return string(l.Type) + ":" + l.Path + ":" + l.Name
}
