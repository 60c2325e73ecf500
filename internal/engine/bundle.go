package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/patchkit/internal/installation"
	"github.com/danieljhkim/patchkit/internal/patch"
)

// applyBundle applies the entries of the bundle unpacked in dir in order,
// committing each one. Entries that are already applied are skipped. When an
// entry fails, the entries applied so far are rolled back newest first and
// the entry's error is returned.
func (e *Engine) applyBundle(ctx context.Context, wd *workDir, dir string, policy VerificationPolicy) (*PatchingResult, error) {
	bundle, err := patch.ParseBundleFile(filepath.Join(dir, patch.BundleFile))
	if err != nil {
		return nil, wrapError("apply", "", err)
	}

	composite := &PatchingResult{
		// Entries are committed as they are applied.
		closed:    true,
		committed: true,
	}
	for _, el := range bundle.Elements {
		_, err := e.manager.FindPatch(el.ID)
		switch {
		case err == nil, errors.Is(err, installation.ErrAmbiguousPatch):
			e.logger.Infof("Skipping %s: already applied", el.ID)
			composite.Skipped = append(composite.Skipped, el.ID)
			continue
		case !errors.Is(err, installation.ErrPatchNotFound):
			e.compensate(ctx, composite.Entries, policy)
			return nil, wrapError("apply", el.ID, err)
		}

		result, err := e.applyBundleElement(ctx, wd, dir, el, policy)
		if err != nil {
			e.compensate(ctx, composite.Entries, policy)
			return nil, err
		}
		composite.Entries = append(composite.Entries, result)
	}

	composite.rollback = func(ctx context.Context) error {
		return e.compensate(ctx, composite.Entries, policy)
	}
	return composite, nil
}

// applyBundleElement applies and commits one bundle entry.
func (e *Engine) applyBundleElement(ctx context.Context, wd *workDir, dir string, el patch.BundleElement, policy VerificationPolicy) (*PatchingResult, error) {
	if err := e.fs.ValidateRelPath(el.Path); err != nil {
		return nil, wrapError("apply", el.ID, err)
	}

	src := &FileSource{Path: filepath.Join(dir, filepath.FromSlash(el.Path))}
	elementDir, err := src.Unpack(ctx, filepath.Join(wd.Path(), "elements", el.ID))
	if err != nil {
		return nil, wrapError("apply", el.ID, err)
	}

	result, err := e.applyDir(ctx, elementDir, policy)
	if err != nil {
		return nil, err
	}
	if result.PatchID != el.ID {
		_ = result.Close()
		return nil, wrapError("apply", el.ID, fmt.Errorf("%w: bundle entry %s holds patch %s", patch.ErrInvalidMetadata, el.ID, result.PatchID))
	}
	if err := result.Commit(); err != nil {
		_ = result.Close()
		return nil, wrapError("apply", el.ID, err)
	}
	return result, nil
}

// compensate rolls back and commits applied results newest first. Failures
// are logged and do not stop the remaining rollbacks.
func (e *Engine) compensate(ctx context.Context, applied []*PatchingResult, policy VerificationPolicy) error {
	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		id := applied[i].PatchID
		e.logger.Infof("Rolling back %s", id)
		if err := e.rollbackAndCommit(ctx, id, policy); err != nil {
			e.logger.Errorf("Failed to roll back %s: %v", id, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
