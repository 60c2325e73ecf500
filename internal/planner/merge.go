package planner

import (
	"errors"
	"fmt"

	"github.com/danieljhkim/patchkit/internal/content"
)

// ErrInconsistentHistory is returned when recorded rollback entries do not
// chain: the content one entry restores is not what the next one expects.
var ErrInconsistentHistory = errors.New("inconsistent patch history")

// Apply merges the modifications of a patch being applied. The most recent
// modification of a location always becomes the target.
func Apply(patchID string, mods []content.Modification, defs *Definitions, filter content.Filter) {
	for _, mod := range mods {
		if !filter.Accepts(mod.Item) {
			continue
		}
		entry := content.NewEntry(patchID, mod)
		def, ok := defs.Get(mod.Item.Location())
		if ok {
			def = def.WithTarget(entry, false)
		} else {
			def = NewDefinition(entry, false)
		}
		defs.Put(def)
	}
}

// Rollback merges the rollback entries recorded by patchID. Entries of
// successive patches must chain; a break is returned as ErrInconsistentHistory.
// In ModeApply each entry is also checked against the modification the patch
// originally declared: the content the patch installed must still be the
// latest recorded content, and mismatches are recorded as conflicts.
func Rollback(patchID string, original, rollback []content.Modification, defs *Definitions, filter content.Filter, mode Mode) error {
	originals := make(map[content.Location]content.Modification, len(original))
	for _, mod := range original {
		originals[mod.Item.Location()] = mod
	}

	for _, mod := range rollback {
		if !filter.Accepts(mod.Item) {
			continue
		}
		loc := mod.Item.Location()
		entry := content.NewEntry(patchID, mod)

		def, ok := defs.Get(loc)
		if !ok {
			def = NewDefinition(entry, true)
		} else {
			previous := def.Target()
			if !previous.Item().Hash.Equal(mod.TargetHash) {
				return fmt.Errorf("%w: %s of %s restores %s but %s expects %s",
					ErrInconsistentHistory, loc, previous.PatchID, previous.Item().Hash, patchID, mod.TargetHash)
			}
			def = def.WithTarget(entry, true)
		}

		if mode == ModeApply {
			if orig, found := originals[loc]; found {
				// The latest entry holds what the installation currently has.
				current := def.Latest().TargetHash()
				if !current.Equal(orig.Item.Hash) || !orig.TargetHash.Equal(mod.Item.Hash) {
					def = def.WithConflict(entry)
				}
			}
		}
		defs.Put(def)
	}
	return nil
}
