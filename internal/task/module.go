package task

import (
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/hash"
)

// backupModule hashes the module or bundle the item currently resolves to.
func backupModule(t *Task, ctx Context) (content.Hash, error) {
	dir, err := Resolve(ctx, t.Item())
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return content.Hash(hash.NoContent), nil
	}
	h, err := ctx.Hasher().HashModule(dir)
	if err != nil {
		return nil, err
	}
	return content.Hash(h), nil
}

// applyModule installs the loader tree into the patch overlay. Items without
// content get an absence marker instead.
func applyModule(t *Task, ctx Context) (content.Hash, error) {
	item := t.Item()
	if item.Hash.IsEmpty() {
		return removeModule(t, ctx)
	}

	dst, err := overlayDir(t, ctx)
	if err != nil {
		return nil, err
	}
	src, err := t.desc.Loader.File(item)
	if err != nil {
		return nil, err
	}
	if err := ctx.FS().Copy(src, dst); err != nil {
		return nil, err
	}

	h, err := ctx.Hasher().HashModule(dst)
	if err != nil {
		return nil, err
	}
	return content.Hash(h), nil
}

// removeModule writes an absence marker into the patch overlay, so the
// removal shadows lower roots and can be reversed.
func removeModule(t *Task, ctx Context) (content.Hash, error) {
	item := t.Item()
	dst, err := overlayDir(t, ctx)
	if err != nil {
		return nil, err
	}

	name, data := AbsentMarker(item)
	if err := ctx.FS().AtomicWrite(filepath.Join(dst, name), data, 0644); err != nil {
		return nil, err
	}

	h, err := ctx.Hasher().HashModule(dst)
	if err != nil {
		return nil, err
	}
	return content.Hash(h), nil
}

// rollbackModule drops the overlay of the rolled back patch and returns the
// hash of what the item resolves to afterwards.
func rollbackModule(t *Task, ctx Context) (content.Hash, error) {
	ctx.InvalidateRoot(overlay(ctx, t.Item(), t.desc.PatchID))
	return backupModule(t, ctx)
}

func noRollbackEntry(*Task, content.Hash) *content.Modification {
	return nil
}

// overlayDir clears and returns the item's directory in the patch overlay.
func overlayDir(t *Task, ctx Context) (string, error) {
	item := t.Item()
	dst := content.ModulePath(overlay(ctx, item, t.desc.PatchID), item.Name, item.Slot)
	if err := ctx.FS().RemoveAll(dst); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", dst, err)
	}
	if err := ctx.FS().MkdirAll(dst, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	return dst, nil
}

// AbsentMarker returns the file name and content that mark an item as absent.
func AbsentMarker(item content.Item) (string, []byte) {
	if item.Type == content.TypeBundle {
		return hash.BundleAbsentMarker, []byte{}
	}
	marker := fmt.Sprintf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<%s xmlns=\"urn:patchkit:module-absent:1.0\" name=%q slot=%q/>\n",
		hash.ModuleAbsentElem, item.Name, item.Slot)
	return hash.ModuleXML, []byte(marker)
}
