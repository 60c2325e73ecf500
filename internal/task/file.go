package task

import (
	"os"

	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/hash"
)

// backupFile copies the target of a misc item to its backup location and
// returns the hash of the target.
func backupFile(t *Task, ctx Context) (content.Hash, error) {
	fs := ctx.FS()
	item := t.Item()
	target := ctx.TargetFile(item)

	exists, err := fs.Exists(target)
	if err != nil {
		return nil, err
	}
	if !exists {
		return content.Hash(hash.NoContent), nil
	}

	backup := ctx.BackupFile(item)
	if err := fs.RemoveAll(backup); err != nil {
		return nil, err
	}
	if err := fs.Copy(target, backup); err != nil {
		return nil, err
	}

	h, err := ctx.Hasher().HashPath(target)
	if err != nil {
		return nil, err
	}
	return content.Hash(h), nil
}

// applyFile writes the loader content of a misc item over its target.
func applyFile(t *Task, ctx Context) (content.Hash, error) {
	fs := ctx.FS()
	item := t.Item()
	target := ctx.TargetFile(item)
	loader := t.desc.Loader

	if item.Directory {
		src, err := loader.File(item)
		if err != nil {
			return nil, err
		}
		if err := fs.RemoveAll(target); err != nil {
			return nil, err
		}
		if err := fs.Copy(src, target); err != nil {
			return nil, err
		}
	} else {
		r, err := loader.OpenContentStream(item)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = r.Close()
		}()
		if err := fs.WriteStream(target, r, filePerm(loader, item)); err != nil {
			return nil, err
		}
	}

	h, err := ctx.Hasher().HashPath(target)
	if err != nil {
		return nil, err
	}
	return content.Hash(h), nil
}

// removeFile deletes the target of a misc item.
func removeFile(t *Task, ctx Context) (content.Hash, error) {
	if err := ctx.FS().RemoveAll(ctx.TargetFile(t.Item())); err != nil {
		return nil, err
	}
	return content.Hash(hash.NoContent), nil
}

// filePerm keeps the permissions the loader content carries.
func filePerm(loader content.Loader, item content.Item) os.FileMode {
	if src, err := loader.File(item); err == nil {
		if info, err := os.Stat(src); err == nil {
			return info.Mode().Perm()
		}
	}
	return 0644
}
