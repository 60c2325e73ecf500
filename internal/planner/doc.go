// Package planner reconciles patch modifications with recorded history.
//
// Every modification is keyed by the Location of its content item. For each
// Location the planner folds the modifications of one or more patches into a
// Definition that remembers the first entry seen (the baseline the
// installation is expected to hold) and the most recent one (the content it
// should end up with). History entries that do not chain with the patch that
// recorded them are collected as conflicts and left to the caller to resolve.
//
// Key responsibilities:
//   - Merge new patch modifications (Apply)
//   - Merge recorded rollback history with strict hash chaining (Rollback)
//   - Resolve definitions into executable task descriptions (Describe)
//   - Keep task order deterministic
package planner
