package planner

import (
	"sort"

	"github.com/danieljhkim/patchkit/internal/content"
)

// Definition is the merged state of all modifications seen for one Location.
// Definitions are values: every merge step returns a new Definition.
type Definition struct {
	location  content.Location
	latest    content.Entry
	target    content.Entry
	merged    bool
	rollback  bool
	conflicts []content.Entry
}

// NewDefinition starts a definition with its first entry.
func NewDefinition(entry content.Entry, rollback bool) Definition {
	return Definition{
		location: entry.Item().Location(),
		latest:   entry,
		target:   entry,
		rollback: rollback,
	}
}

// WithTarget returns a copy whose target is entry. The rollback flag stays set
// only while every merged entry is a rollback entry.
func (d Definition) WithTarget(entry content.Entry, rollback bool) Definition {
	next := d
	next.target = entry
	next.merged = true
	next.rollback = d.rollback && rollback
	next.conflicts = append([]content.Entry(nil), d.conflicts...)
	return next
}

// WithConflict returns a copy that records entry as conflicting.
func (d Definition) WithConflict(entry content.Entry) Definition {
	next := d
	next.conflicts = append(append([]content.Entry(nil), d.conflicts...), entry)
	return next
}

// Location returns the location the definition covers.
func (d Definition) Location() content.Location { return d.location }

// Latest returns the first entry merged, the baseline expected on disk.
func (d Definition) Latest() content.Entry { return d.latest }

// Target returns the most recently merged entry.
func (d Definition) Target() content.Entry { return d.target }

// IsMerged reports whether more than one entry was merged.
func (d Definition) IsMerged() bool { return d.merged }

// IsRollback reports whether the definition only holds rollback entries.
func (d Definition) IsRollback() bool { return d.rollback }

// HasConflicts reports whether any merged entry broke the hash chain.
func (d Definition) HasConflicts() bool { return len(d.conflicts) > 0 }

// Conflicts returns the conflicting entries.
func (d Definition) Conflicts() []content.Entry {
	return append([]content.Entry(nil), d.conflicts...)
}

// Definitions holds one Definition per Location in first-seen order.
type Definitions struct {
	order []content.Location
	defs  map[content.Location]Definition
}

// NewDefinitions creates an empty set of definitions.
func NewDefinitions() *Definitions {
	return &Definitions{defs: make(map[content.Location]Definition)}
}

// Get returns the definition for a location.
func (d *Definitions) Get(loc content.Location) (Definition, bool) {
	def, ok := d.defs[loc]
	return def, ok
}

// Put stores a definition, keeping the position of an existing one.
func (d *Definitions) Put(def Definition) {
	if _, ok := d.defs[def.location]; !ok {
		d.order = append(d.order, def.location)
	}
	d.defs[def.location] = def
}

// Len returns the number of definitions.
func (d *Definitions) Len() int {
	return len(d.order)
}

// All returns the definitions in first-seen order.
func (d *Definitions) All() []Definition {
	all := make([]Definition, 0, len(d.order))
	for _, loc := range d.order {
		all = append(all, d.defs[loc])
	}
	return all
}

// Ordered returns the definitions grouped for execution: misc files first,
// then bundles, then modules, each group in first-seen order.
func (d *Definitions) Ordered() []Definition {
	all := d.All()
	sort.SliceStable(all, func(i, j int) bool {
		return typeRank(all[i].location.Type) < typeRank(all[j].location.Type)
	})
	return all
}

func typeRank(t content.Type) int {
	switch t {
	case content.TypeMisc:
		return 0
	case content.TypeBundle:
		return 1
	default:
		return 2
	}
}
