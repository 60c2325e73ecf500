package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/installation"
	"github.com/danieljhkim/patchkit/internal/planner"
	"github.com/danieljhkim/patchkit/internal/state"
)

// Rollback rolls back a patch.
//
// Algorithm steps:
//  1. Find the stream holding the patch (ambiguous ids are an error)
//  2. Queue the patch, or with RollbackTo every patch applied since, newest first
//  3. Merge the recorded rollback entries of the queued patches
//  4. Run the task pipeline; once prepared, stage the removal of the queued
//     patches and the re-activation of one-offs superseded by them
//
// The result is returned uncommitted: the caller must Commit or Close it.
func (e *Engine) Rollback(ctx context.Context, req *RollbackRequest) (*PatchingResult, error) {
	if req.PatchID == "" {
		return nil, fmt.Errorf("rollback: no patch id")
	}

	streamName, err := e.manager.FindPatch(req.PatchID)
	if err != nil {
		return nil, wrapError("rollback", req.PatchID, err)
	}
	st, err := e.manager.Stream(streamName)
	if err != nil {
		return nil, wrapError("rollback", req.PatchID, err)
	}

	queue, err := rollbackQueue(st, req.PatchID, req.RollbackTo)
	if err != nil {
		return nil, wrapError("rollback", req.PatchID, err)
	}
	records := make(map[string]*state.PatchRecord, len(queue))
	for _, id := range queue {
		record, err := e.manager.Record(streamName, id)
		if err != nil {
			return nil, wrapError("rollback", req.PatchID, fmt.Errorf("failed to load history of %s: %w", id, err))
		}
		records[id] = record
	}
	if err := ctx.Err(); err != nil {
		return nil, wrapError("rollback", req.PatchID, err)
	}

	cb := &undoCallback{
		engine:  e,
		patchID: req.PatchID,
		backupRoot: func(mod *installation.Modification) string {
			return mod.TmpDir()
		},
	}
	mod, err := e.manager.ModifyInstallation(streamName, planner.ModeRollback, cb)
	if err != nil {
		return nil, wrapError("rollback", req.PatchID, err)
	}

	e.logger.Infof("Reverting %s", strings.Join(queue, ", "))
	result, err := e.rollbackPatches(mod, cb, queue, records, st, req)
	if err != nil {
		return nil, e.cancel(mod, "rollback", req.PatchID, err)
	}
	return result, nil
}

// rollbackQueue returns the patches to roll back, newest first.
func rollbackQueue(st *state.StreamState, patchID string, rollbackTo bool) ([]string, error) {
	if !rollbackTo {
		if latest := st.Latest(); latest != patchID {
			return nil, fmt.Errorf("%w: %s was applied after %s", ErrNotLatestPatch, latest, patchID)
		}
		return []string{patchID}, nil
	}

	// Every patch applied since patchID is either active or was superseded
	// by a cumulative patch that is itself rolled back.
	start := -1
	for i, id := range st.Applied {
		if id == patchID {
			start = i
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("no history for %s in stream %s", patchID, st.Name)
	}
	queue := make([]string, 0, len(st.Applied)-start)
	for i := len(st.Applied) - 1; i >= start; i-- {
		queue = append(queue, st.Applied[i])
	}
	return queue, nil
}

func (e *Engine) rollbackPatches(
	mod *installation.Modification,
	cb *undoCallback,
	queue []string,
	records map[string]*state.PatchRecord,
	st *state.StreamState,
	req *RollbackRequest,
) (*PatchingResult, error) {
	defs := planner.NewDefinitions()
	loaders := make(map[string]content.Loader, len(queue))
	for _, id := range queue {
		record := records[id]

		// Superseded one-offs only keep misc history; their modules were
		// never part of the cumulative patch's baseline.
		filter := content.All
		if !st.IsActive(id) {
			filter = content.MiscOnly
		}
		if err := planner.Rollback(id, record.Modifications, record.Rollback, defs, filter, planner.ModeRollback); err != nil {
			return nil, err
		}
		loaders[id] = content.NewDirLoader(mod.RecordDir(id))
	}

	rolledBack := make(map[string]bool, len(queue))
	for _, id := range queue {
		rolledBack[id] = true
	}
	var reactivated []string
	for _, id := range queue {
		for _, inv := range records[id].Invalidated {
			if !rolledBack[inv] {
				reactivated = append(reactivated, inv)
			}
		}
	}

	oldest := records[queue[len(queue)-1]]
	stage := func() error {
		for _, id := range queue {
			mod.RemovePatch(id)
		}
		if len(reactivated) > 0 {
			mod.Reactivate(reactivated...)
			// Their overlays return with the commit; the content being
			// restored now is the baseline the cumulative patch replaced.
			for _, id := range reactivated {
				mod.InvalidateRoot(mod.ModuleOverlay(id))
				mod.InvalidateRoot(mod.BundleOverlay(id))
			}
		}
		mod.SetVersion(oldest.VersionBefore)
		return nil
	}

	tctx := e.newTaskContext(mod, planner.ModeRollback, mod.TmpDir())
	tasks, err := e.runTasks(tctx, req.PatchID, defs, loaders, policyOrDefault(req.Policy), stage)
	if err != nil {
		return nil, err
	}

	if req.ResetConfiguration {
		if err := e.resetConfiguration(mod, cb, oldest); err != nil {
			return nil, err
		}
	}

	e.logger.Infof("Rolled back %s (%d tasks)", req.PatchID, tasks)
	return &PatchingResult{
		PatchID: req.PatchID,
		Info: PatchInfo{
			ID:            req.PatchID,
			Type:          records[req.PatchID].Type,
			Description:   records[req.PatchID].Description,
			Stream:        mod.Stream(),
			VersionBefore: st.Version,
			VersionAfter:  oldest.VersionBefore,
			Invalidated:   reactivated,
			RolledBack:    queue,
		},
		Tasks:  tasks,
		commit: mod.Commit,
		cancel: mod.Cancel,
	}, nil
}

// resetConfiguration replaces the configuration with the backup taken when
// oldest was applied. The current configuration is kept in the transaction
// directory so a cancel can restore it.
func (e *Engine) resetConfiguration(mod *installation.Modification, cb *undoCallback, oldest *state.PatchRecord) error {
	if !oldest.ConfigurationBackup {
		e.logger.Warnf("No configuration backup for %s, keeping current configuration", oldest.PatchID)
		return nil
	}

	current := filepath.Join(mod.TmpDir(), ConfigurationDir)
	if _, err := e.backupConfiguration(current); err != nil {
		return err
	}
	cb.configBackup = current

	e.logger.Infof("Restoring configuration from %s", oldest.PatchID)
	return e.restoreConfiguration(filepath.Join(mod.RecordDir(oldest.PatchID), ConfigurationDir))
}

// rollbackAndCommit rolls back the newest patch and commits the rollback.
func (e *Engine) rollbackAndCommit(ctx context.Context, patchID string, policy VerificationPolicy) error {
	result, err := e.Rollback(ctx, &RollbackRequest{PatchID: patchID, Policy: policy})
	if err != nil {
		return err
	}
	defer func() {
		_ = result.Close()
	}()
	return result.Commit()
}
