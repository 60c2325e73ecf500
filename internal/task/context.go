package task

import (
	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/fsops"
	"github.com/danieljhkim/patchkit/internal/hash"
	"github.com/danieljhkim/patchkit/internal/planner"
)

// Context is the environment a task runs in, normally backed by an open
// installation modification.
type Context interface {
	// Mode returns the direction of the run.
	Mode() planner.Mode

	// TargetFile returns the installation path of a misc item.
	TargetFile(item content.Item) string

	// BackupFile returns where the current content of a misc item is backed up.
	BackupFile(item content.Item) string

	// ModuleSearchPath returns the module roots, highest precedence first.
	ModuleSearchPath() []string

	// BundleSearchPath returns the bundle roots, highest precedence first.
	BundleSearchPath() []string

	// ModuleOverlay returns the module overlay root of a patch.
	ModuleOverlay(patchID string) string

	// BundleOverlay returns the bundle overlay root of a patch.
	BundleOverlay(patchID string) string

	// InvalidateRoot removes an overlay root from the search paths.
	InvalidateRoot(root string)

	// RecordChange records an executed modification and its rollback entry.
	RecordChange(original, rollback content.Modification)

	// IsExcluded reports whether the item keeps its current content.
	IsExcluded(item content.Item) bool

	// IsIgnored reports whether content verification is skipped for the item.
	IsIgnored(item content.Item) bool

	// FS returns the filesystem used for all mutations.
	FS() fsops.FS

	// Hasher returns the content hasher.
	Hasher() hash.Hasher
}

// searchPath returns the roots an item of a module-like type resolves through.
func searchPath(ctx Context, item content.Item) []string {
	if item.Type == content.TypeBundle {
		return ctx.BundleSearchPath()
	}
	return ctx.ModuleSearchPath()
}

// overlay returns the overlay root of a patch for the item's type.
func overlay(ctx Context, item content.Item, patchID string) string {
	if item.Type == content.TypeBundle {
		return ctx.BundleOverlay(patchID)
	}
	return ctx.ModuleOverlay(patchID)
}

// Resolve returns the directory a module or bundle currently resolves to,
// or "" when no root provides it.
func Resolve(ctx Context, item content.Item) (string, error) {
	for _, root := range searchPath(ctx, item) {
		dir := content.ModulePath(root, item.Name, item.Slot)
		exists, err := ctx.FS().Exists(dir)
		if err != nil {
			return "", err
		}
		if exists {
			return dir, nil
		}
	}
	return "", nil
}
