package planner

// Mode is the direction of a patching run.
type Mode int

const (
	// ModeApply applies a patch.
	ModeApply Mode = iota

	// ModeRollback reverses previously applied patches.
	ModeRollback

	// ModeUndo reverts the changes of a cancelled transaction. Content
	// mismatches are tolerated in this mode.
	ModeUndo
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeApply:
		return "apply"
	case ModeRollback:
		return "rollback"
	case ModeUndo:
		return "undo"
	default:
		return "unknown"
	}
}
