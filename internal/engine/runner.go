package engine

import (
	"fmt"

	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/planner"
	"github.com/danieljhkim/patchkit/internal/task"
)

// runTasks turns merged definitions into tasks and runs them.
//
// Algorithm steps:
//  1. Describe every definition and create its task, dropping irrelevant ones
//  2. Prepare all tasks, collecting the ones whose content conflicts
//  3. Resolve conflicts through the policy, failing on unresolved ones
//  4. Run beforeExecute, then execute all tasks in order
func (e *Engine) runTasks(
	tctx *taskContext,
	patchID string,
	defs *planner.Definitions,
	loaders map[string]content.Loader,
	policy VerificationPolicy,
	beforeExecute func() error,
) (int, error) {
	tasks, err := e.createTasks(tctx, defs, loaders)
	if err != nil {
		return 0, err
	}

	var conflicts []content.Item
	for _, t := range tasks {
		ok, err := t.Prepare(tctx)
		if err != nil {
			return 0, err
		}
		if ok {
			continue
		}

		item := t.Item()
		switch {
		case policy.PreserveExisting(item):
			e.logger.Debugf("Preserving %s", item)
			tctx.exclude(item)
		case policy.IgnoreContentValidation(item):
			e.logger.Debugf("Overriding %s", item)
			tctx.ignore(item)
		default:
			conflicts = append(conflicts, item)
		}
	}
	if len(conflicts) > 0 {
		return 0, &ConflictError{PatchID: patchID, Items: conflicts}
	}

	if beforeExecute != nil {
		if err := beforeExecute(); err != nil {
			return 0, err
		}
	}

	for _, t := range tasks {
		e.logger.Debugf("Executing %s", t)
		if err := t.Execute(tctx); err != nil {
			return 0, err
		}
	}
	return len(tasks), nil
}

// createTasks creates the tasks of all definitions whose condition holds.
func (e *Engine) createTasks(tctx *taskContext, defs *planner.Definitions, loaders map[string]content.Loader) ([]*task.Task, error) {
	var tasks []*task.Task
	for _, def := range defs.Ordered() {
		desc, err := planner.Describe(def, loaders)
		if err != nil {
			return nil, err
		}
		t, err := task.New(desc)
		if err != nil {
			return nil, fmt.Errorf("failed to create task for %s: %w", def.Location(), err)
		}
		if !t.IsRelevant(tctx) {
			e.logger.Debugf("Skipping %s: condition not satisfied", t)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
