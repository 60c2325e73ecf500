package planner

import (
	"fmt"

	"github.com/danieljhkim/patchkit/internal/content"
)

// Description is a resolved, ready to execute modification.
type Description struct {
	// PatchID is the patch whose content the task installs
	PatchID string

	// Modification is the effective modification
	Modification content.Modification

	// Loader supplies the new content
	Loader content.Loader

	// Conflicts is set when history merging found conflicts
	Conflicts bool

	// SkipIfTheSame is set when the new content equals the expected content
	SkipIfTheSame bool

	// Rollback is set when the description undoes earlier modifications
	Rollback bool
}

// Describe resolves a definition into a description. A definition holding a
// single entry uses it as is; a merged definition installs the target item
// over the content the latest entry expects.
func Describe(def Definition, loaders map[string]content.Loader) (Description, error) {
	target := def.Target()
	loader, ok := loaders[target.PatchID]
	if !ok {
		return Description{}, fmt.Errorf("no content loader for patch %s", target.PatchID)
	}

	mod := target.Modification
	if def.IsMerged() {
		item := target.Item()
		targetHash := def.Latest().TargetHash()

		modType := content.ModificationModify
		switch {
		case item.Hash.IsEmpty():
			modType = content.ModificationRemove
		case targetHash.IsEmpty():
			modType = content.ModificationAdd
		}
		mod = content.NewModification(item, targetHash, modType, target.Modification.Condition)
	}

	return Description{
		PatchID:       target.PatchID,
		Modification:  mod,
		Loader:        loader,
		Conflicts:     def.HasConflicts(),
		SkipIfTheSame: mod.Item.Hash.Equal(mod.TargetHash),
		Rollback:      def.IsRollback(),
	}, nil
}
