package task

import (
	"fmt"

	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/planner"
)

// Kind identifies the task variant.
type Kind int

const (
	FileUpdate Kind = iota
	FileRemove
	ModuleUpdate
	ModuleRemove
	ModuleRollback
	BundleUpdate
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case FileUpdate:
		return "file-update"
	case FileRemove:
		return "file-remove"
	case ModuleUpdate:
		return "module-update"
	case ModuleRemove:
		return "module-remove"
	case ModuleRollback:
		return "module-rollback"
	case BundleUpdate:
		return "bundle-update"
	default:
		return "unknown"
	}
}

// operations is the per-kind function table.
type operations struct {
	// backup snapshots the current content and returns its hash
	backup func(t *Task, ctx Context) (content.Hash, error)

	// apply installs the new content and returns its hash
	apply func(t *Task, ctx Context) (content.Hash, error)

	// rollbackEntry builds the entry reversing the task, nil if none
	rollbackEntry func(t *Task, applied content.Hash) *content.Modification
}

// Task executes one content modification.
type Task struct {
	kind          Kind
	ops           operations
	desc          planner.Description
	backupHash    content.Hash
	prepared      bool
	ignoreApply   bool
	skipExecution bool
}

// Kind returns the task variant.
func (t *Task) Kind() Kind { return t.kind }

// Item returns the content item the task installs.
func (t *Task) Item() content.Item { return t.desc.Modification.Item }

// Description returns the description the task was created from.
func (t *Task) Description() planner.Description { return t.desc }

// BackupHash returns the hash of the content found during Prepare.
func (t *Task) BackupHash() content.Hash { return t.backupHash }

// String returns a human-readable description of the task.
func (t *Task) String() string {
	return fmt.Sprintf("%s %s", t.kind, t.Item())
}

// IsRelevant reports whether the modification condition holds.
func (t *Task) IsRelevant(ctx Context) bool {
	return t.desc.Modification.Condition.IsSatisfied(func(item content.Item) bool {
		exists, err := ctx.FS().Exists(ctx.TargetFile(item))
		return err == nil && exists
	})
}

// Prepare backs up the current content and checks it against the
// modification. It returns false when the content conflicts with what the
// modification expects; content mismatches are tolerated in ModeUndo.
func (t *Task) Prepare(ctx Context) (bool, error) {
	backup, err := t.ops.backup(t, ctx)
	if err != nil {
		return false, fmt.Errorf("failed to back up %s: %w", t.Item(), err)
	}
	t.backupHash = backup
	t.prepared = true

	item := t.Item()
	if backup.Equal(item.Hash) {
		if item.Type == content.TypeMisc {
			t.skipExecution = true
		}
		if t.desc.SkipIfTheSame {
			t.ignoreApply = true
		}
		return true, nil
	}
	if backup.Equal(t.desc.Modification.TargetHash) {
		if t.desc.Conflicts {
			return !failOnContentMismatch(ctx), nil
		}
		return true, nil
	}
	return !failOnContentMismatch(ctx), nil
}

// Execute installs the new content, records the rollback entry and verifies
// the installed content.
func (t *Task) Execute(ctx Context) error {
	if !t.prepared {
		return fmt.Errorf("task %s executed before prepare", t)
	}
	if t.ignoreApply {
		return nil
	}

	item := t.Item()
	var applied content.Hash
	if t.skipExecution || ctx.IsExcluded(item) {
		applied = t.backupHash
	} else {
		h, err := t.ops.apply(t, ctx)
		if err != nil {
			return fmt.Errorf("failed to apply %s: %w", item, err)
		}
		applied = h
	}

	if entry := t.ops.rollbackEntry(t, applied); entry != nil {
		ctx.RecordChange(t.desc.Modification, *entry)
	}

	if ctx.Mode() == planner.ModeUndo || ctx.IsIgnored(item) || ctx.IsExcluded(item) {
		return nil
	}
	if !applied.Equal(item.Hash) {
		return &ContentMismatchError{Item: item, Expected: item.Hash, Actual: applied}
	}
	return nil
}

func failOnContentMismatch(ctx Context) bool {
	return ctx.Mode() != planner.ModeUndo
}

// reverse builds the rollback entry restoring the backed up content over
// the applied content.
func reverse(t *Task, applied content.Hash) *content.Modification {
	modType := content.ModificationModify
	switch {
	case t.backupHash.IsEmpty():
		modType = content.ModificationRemove
	case applied.IsEmpty():
		modType = content.ModificationAdd
	}
	mod := content.NewModification(t.Item().WithHash(t.backupHash), applied, modType, nil)
	return &mod
}
