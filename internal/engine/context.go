package engine

import (
	"path/filepath"

	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/fsops"
	"github.com/danieljhkim/patchkit/internal/hash"
	"github.com/danieljhkim/patchkit/internal/installation"
	"github.com/danieljhkim/patchkit/internal/planner"
	"github.com/danieljhkim/patchkit/internal/task"
)

// taskContext runs tasks inside an open installation modification.
type taskContext struct {
	mod        *installation.Modification
	mode       planner.Mode
	backupRoot string
	fs         fsops.FS
	hasher     hash.Hasher
	excluded   map[content.Location]bool
	ignored    map[content.Location]bool

	// discard drops recorded changes; set while undoing a modification
	discard bool
}

var _ task.Context = &taskContext{}

func (e *Engine) newTaskContext(mod *installation.Modification, mode planner.Mode, backupRoot string) *taskContext {
	return &taskContext{
		mod:        mod,
		mode:       mode,
		backupRoot: backupRoot,
		fs:         e.fs,
		hasher:     e.hasher,
		excluded:   make(map[content.Location]bool),
		ignored:    make(map[content.Location]bool),
	}
}

func (c *taskContext) Mode() planner.Mode { return c.mode }

func (c *taskContext) TargetFile(item content.Item) string {
	return c.mod.TargetFile(item)
}

func (c *taskContext) BackupFile(item content.Item) string {
	return content.MiscPath(filepath.Join(c.backupRoot, content.MiscDir), item)
}

func (c *taskContext) ModuleSearchPath() []string { return c.mod.ModuleSearchPath() }

func (c *taskContext) BundleSearchPath() []string { return c.mod.BundleSearchPath() }

func (c *taskContext) ModuleOverlay(patchID string) string { return c.mod.ModuleOverlay(patchID) }

func (c *taskContext) BundleOverlay(patchID string) string { return c.mod.BundleOverlay(patchID) }

func (c *taskContext) InvalidateRoot(root string) { c.mod.InvalidateRoot(root) }

func (c *taskContext) RecordChange(original, rollback content.Modification) {
	if c.discard {
		return
	}
	c.mod.RecordChange(original, rollback)
}

func (c *taskContext) IsExcluded(item content.Item) bool { return c.excluded[item.Location()] }

func (c *taskContext) IsIgnored(item content.Item) bool { return c.ignored[item.Location()] }

func (c *taskContext) FS() fsops.FS { return c.fs }

func (c *taskContext) Hasher() hash.Hasher { return c.hasher }

func (c *taskContext) exclude(item content.Item) { c.excluded[item.Location()] = true }

func (c *taskContext) ignore(item content.Item) { c.ignored[item.Location()] = true }
