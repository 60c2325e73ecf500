package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/installation"
	"github.com/danieljhkim/patchkit/internal/patch"
	"github.com/danieljhkim/patchkit/internal/planner"
	"github.com/danieljhkim/patchkit/internal/state"
)

// Apply applies a patch or patch bundle.
//
// Algorithm steps:
//  1. Unpack the source into a scoped working directory
//  2. Delegate to the bundle path when the source holds patches.xml
//  3. Parse patch.xml and resolve it for the installed stream version
//  4. Open a modification, merge the patch (and for cumulative patches the
//     history of the one-offs it supersedes) and run the task pipeline
//
// A single patch is returned uncommitted: the caller must Commit or Close
// the result. Bundle entries are committed as they are applied.
func (e *Engine) Apply(ctx context.Context, req *ApplyRequest) (*PatchingResult, error) {
	if req.Source == nil {
		return nil, fmt.Errorf("apply: no patch source")
	}

	wd, err := e.newWorkDir("apply")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := wd.Close(); err != nil {
			e.logger.Warnf("Failed to remove %s: %v", wd.Path(), err)
		}
	}()

	dir, err := req.Source.Unpack(ctx, wd.Path())
	if err != nil {
		return nil, wrapError("apply", "", err)
	}

	isBundle, err := e.fs.Exists(filepath.Join(dir, patch.BundleFile))
	if err != nil {
		return nil, err
	}
	if isBundle {
		return e.applyBundle(ctx, wd, dir, policyOrDefault(req.Policy))
	}
	return e.applyDir(ctx, dir, policyOrDefault(req.Policy))
}

// applyDir applies the single patch unpacked in dir.
func (e *Engine) applyDir(ctx context.Context, dir string, policy VerificationPolicy) (*PatchingResult, error) {
	metadata := filepath.Join(dir, patch.MetadataFile)
	exists, err := e.fs.Exists(metadata)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, wrapError("apply", "", fmt.Errorf("%w in %s", ErrNoMetadata, dir))
	}

	p, err := patch.ParseFile(metadata)
	if err != nil {
		return nil, wrapError("apply", "", err)
	}

	st, err := e.manager.Stream(p.Stream)
	if err != nil {
		return nil, wrapError("apply", p.ID, err)
	}
	if st.IsActive(p.ID) {
		return nil, wrapError("apply", p.ID, ErrAlreadyApplied)
	}
	resolved, err := patch.ResolveForVersion(p, dir, st.Version)
	if err != nil {
		return nil, wrapError("apply", p.ID, err)
	}
	p = resolved
	if err := ctx.Err(); err != nil {
		return nil, wrapError("apply", p.ID, err)
	}

	cb := &undoCallback{
		engine:  e,
		patchID: p.ID,
		backupRoot: func(mod *installation.Modification) string {
			return mod.RecordDir(p.ID)
		},
	}
	mod, err := e.manager.ModifyInstallation(st.Name, planner.ModeApply, cb)
	if err != nil {
		return nil, wrapError("apply", p.ID, err)
	}

	e.logger.Infof("Applying %s", p)
	result, err := e.applyPatch(mod, dir, p, policy)
	if err != nil {
		return nil, e.cancel(mod, "apply", p.ID, err)
	}
	return result, nil
}

// applyPatch merges p into a fresh set of definitions and runs the tasks
// inside mod.
func (e *Engine) applyPatch(mod *installation.Modification, dir string, p *patch.Patch, policy VerificationPolicy) (*PatchingResult, error) {
	record := &state.PatchRecord{
		PatchID:       p.ID,
		Type:          string(p.Type),
		Description:   p.Description,
		VersionBefore: mod.Version(),
		VersionAfter:  p.TargetVersion(),
		Modifications: p.Modifications,
	}

	defs := planner.NewDefinitions()
	loaders := map[string]content.Loader{p.ID: content.NewDirLoader(dir)}

	if p.IsCumulative() {
		invalidated, err := e.invalidateOneOffs(mod, defs, loaders)
		if err != nil {
			return nil, err
		}
		record.Invalidated = invalidated
	}
	planner.Apply(p.ID, p.Modifications, defs, content.All)

	backup := mod.RecordDir(p.ID)
	hasConfig, err := e.backupConfiguration(filepath.Join(backup, ConfigurationDir))
	if err != nil {
		return nil, err
	}
	record.ConfigurationBackup = hasConfig

	mod.AddPatch(record)
	mod.SetVersion(p.TargetVersion())

	tctx := e.newTaskContext(mod, planner.ModeApply, backup)
	tasks, err := e.runTasks(tctx, p.ID, defs, loaders, policy, nil)
	if err != nil {
		return nil, err
	}

	e.logger.Infof("Applied %s (%d tasks)", p.ID, tasks)
	return &PatchingResult{
		PatchID: p.ID,
		Info: PatchInfo{
			ID:            p.ID,
			Type:          string(p.Type),
			Description:   p.Description,
			Stream:        mod.Stream(),
			VersionBefore: record.VersionBefore,
			VersionAfter:  record.VersionAfter,
			Invalidated:   record.Invalidated,
		},
		Tasks:  tasks,
		commit: mod.Commit,
		cancel: mod.Cancel,
		rollback: func(ctx context.Context) error {
			return e.rollbackAndCommit(ctx, p.ID, policy)
		},
	}, nil
}

// invalidateOneOffs merges the misc history of the active one-off patches,
// newest first, so a cumulative patch starts from the content they replaced.
// Their overlays drop out of the search path and they are deactivated.
func (e *Engine) invalidateOneOffs(mod *installation.Modification, defs *planner.Definitions, loaders map[string]content.Loader) ([]string, error) {
	var invalidated []string
	active := mod.ActivePatches()
	for i := len(active) - 1; i >= 0; i-- {
		id := active[i]
		record, err := e.manager.Record(mod.Stream(), id)
		if err != nil {
			return nil, fmt.Errorf("failed to load history of %s: %w", id, err)
		}
		if record.Type != state.PatchOneOff {
			continue
		}

		if err := planner.Rollback(id, record.Modifications, record.Rollback, defs, content.MiscOnly, planner.ModeApply); err != nil {
			return nil, err
		}
		loaders[id] = content.NewDirLoader(mod.RecordDir(id))
		mod.InvalidateRoot(mod.ModuleOverlay(id))
		mod.InvalidateRoot(mod.BundleOverlay(id))
		mod.Deactivate(id)
		invalidated = append(invalidated, id)
		e.logger.Infof("Invalidating %s", id)
	}
	return invalidated, nil
}

// cancel cancels mod after err and returns err as a PatchingError.
func (e *Engine) cancel(mod *installation.Modification, op, patchID string, err error) error {
	if cerr := mod.Cancel(); cerr != nil {
		e.logger.Errorf("Failed to cancel %s of %s: %v", op, patchID, cerr)
	}
	e.logger.Debugf("Cancelled %s of %s: %v", op, patchID, err)
	return wrapError(op, patchID, err)
}

func policyOrDefault(p VerificationPolicy) VerificationPolicy {
	if p == nil {
		return NewPolicyBuilder().Build()
	}
	return p
}
