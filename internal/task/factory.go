package task

import (
	"fmt"

	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/planner"
)

var kinds = map[Kind]operations{
	FileUpdate:     {backup: backupFile, apply: applyFile, rollbackEntry: reverse},
	FileRemove:     {backup: backupFile, apply: removeFile, rollbackEntry: reverse},
	ModuleUpdate:   {backup: backupModule, apply: applyModule, rollbackEntry: reverse},
	ModuleRemove:   {backup: backupModule, apply: removeModule, rollbackEntry: reverse},
	ModuleRollback: {backup: backupModule, apply: rollbackModule, rollbackEntry: noRollbackEntry},
	BundleUpdate:   {backup: backupModule, apply: applyModule, rollbackEntry: reverse},
}

// New creates the task for a description.
//
//	misc    any      remove      FileRemove
//	misc    any      add/modify  FileUpdate
//	module  rollback any         ModuleRollback
//	module  apply    remove      ModuleRemove
//	module  apply    add/modify  ModuleUpdate
//	bundle  rollback any         ModuleRollback
//	bundle  apply    any         BundleUpdate
func New(desc planner.Description) (*Task, error) {
	kind, err := kindOf(desc)
	if err != nil {
		return nil, err
	}
	return &Task{kind: kind, ops: kinds[kind], desc: desc}, nil
}

func kindOf(desc planner.Description) (Kind, error) {
	mod := desc.Modification
	switch mod.Item.Type {
	case content.TypeMisc:
		if mod.Type == content.ModificationRemove {
			return FileRemove, nil
		}
		return FileUpdate, nil
	case content.TypeModule:
		switch {
		case desc.Rollback:
			return ModuleRollback, nil
		case mod.Type == content.ModificationRemove:
			return ModuleRemove, nil
		default:
			return ModuleUpdate, nil
		}
	case content.TypeBundle:
		if desc.Rollback {
			return ModuleRollback, nil
		}
		return BundleUpdate, nil
	default:
		return 0, fmt.Errorf("unsupported content type %q", mod.Item.Type)
	}
}
