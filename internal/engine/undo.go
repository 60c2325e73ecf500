package engine

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/installation"
	"github.com/danieljhkim/patchkit/internal/planner"
)

// undoCallback reverts the changes of a cancelled modification from the
// backups the modification's tasks wrote.
type undoCallback struct {
	engine  *Engine
	patchID string

	// backupRoot is where the modification's tasks backed up content
	backupRoot func(mod *installation.Modification) string

	// configBackup is set once the configuration was replaced
	configBackup string
}

var _ installation.Callback = &undoCallback{}

func (c *undoCallback) Completed(*installation.Modification) error {
	return nil
}

// Canceled restores the recorded changes newest first. Undo is best effort:
// every change is attempted and the failures are joined.
func (c *undoCallback) Canceled(mod *installation.Modification) error {
	var errs []error

	changes := mod.Changes()
	if len(changes) > 0 {
		rollback := make([]content.Modification, 0, len(changes))
		for i := len(changes) - 1; i >= 0; i-- {
			rollback = append(rollback, changes[i].Rollback)
		}

		defs := planner.NewDefinitions()
		if err := planner.Rollback(c.patchID, nil, rollback, defs, content.All, planner.ModeUndo); err != nil {
			errs = append(errs, err)
		} else {
			loaders := map[string]content.Loader{
				c.patchID: content.NewDirLoader(c.backupRoot(mod)),
			}
			tctx := c.engine.newTaskContext(mod, planner.ModeUndo, filepath.Join(mod.TmpDir(), "undo"))
			tctx.discard = true
			errs = append(errs, c.engine.undoTasks(tctx, defs, loaders)...)
		}
	}

	if c.configBackup != "" {
		if err := c.engine.restoreConfiguration(c.configBackup); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		c.engine.logger.Errorf("Undo of %s incomplete: %v", c.patchID, errors.Join(errs...))
	}
	return errors.Join(errs...)
}

// undoTasks runs every task of defs, continuing past failures.
func (e *Engine) undoTasks(tctx *taskContext, defs *planner.Definitions, loaders map[string]content.Loader) []error {
	tasks, err := e.createTasks(tctx, defs, loaders)
	if err != nil {
		return []error{err}
	}

	var errs []error
	for _, t := range tasks {
		if _, err := t.Prepare(tctx); err != nil {
			errs = append(errs, fmt.Errorf("undo %s: %w", t, err))
			continue
		}
		if err := t.Execute(tctx); err != nil {
			errs = append(errs, fmt.Errorf("undo %s: %w", t, err))
		}
	}
	return errs
}
