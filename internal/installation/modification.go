package installation

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/planner"
	"github.com/danieljhkim/patchkit/internal/state"
)

// Callback is notified when a modification ends.
type Callback interface {
	// Completed runs before a commit persists anything. An error aborts the
	// commit and leaves the modification open.
	Completed(mod *Modification) error

	// Canceled runs when the modification is cancelled and must revert the
	// recorded changes.
	Canceled(mod *Modification) error
}

// Change is an executed modification together with the entry reversing it.
type Change struct {
	Original content.Modification
	Rollback content.Modification
}

// Modification is a transaction over one stream of an installation. Changes
// made through it only become part of the installation state on Commit;
// Cancel reverts them through the callback.
type Modification struct {
	id          string
	manager     *Manager
	staged      *state.StreamState
	mode        planner.Mode
	callback    Callback
	records     []*state.PatchRecord
	removed     []string
	invalidated map[string]bool
	changes     []Change
	closed      bool
	committed   bool
}

func newModification(m *Manager, staged *state.StreamState, mode planner.Mode, callback Callback) *Modification {
	return &Modification{
		id:          uuid.NewString(),
		manager:     m,
		staged:      staged,
		mode:        mode,
		callback:    callback,
		invalidated: make(map[string]bool),
	}
}

// ID returns the transaction id.
func (m *Modification) ID() string { return m.id }

// Stream returns the name of the modified stream.
func (m *Modification) Stream() string { return m.staged.Name }

// Mode returns the mode the modification was opened in.
func (m *Modification) Mode() planner.Mode { return m.mode }

// Home returns the installation home.
func (m *Modification) Home() string { return m.manager.home }

// Manager returns the manager that opened the modification.
func (m *Modification) Manager() *Manager { return m.manager }

// Version returns the staged stream version.
func (m *Modification) Version() string { return m.staged.Version }

// SetVersion stages a new stream version.
func (m *Modification) SetVersion(version string) { m.staged.Version = version }

// ActivePatches returns the staged active patches, oldest first.
func (m *Modification) ActivePatches() []string {
	return append([]string(nil), m.staged.Patches...)
}

// AppliedAfter reports whether patch a was applied after patch b.
func (m *Modification) AppliedAfter(a, b string) bool {
	return m.staged.AppliedAfter(a, b)
}

// IsClosed reports whether the modification was committed or cancelled.
func (m *Modification) IsClosed() bool { return m.closed }

// TargetFile returns the installation path of a misc item.
func (m *Modification) TargetFile(item content.Item) string {
	return content.MiscPath(m.manager.home, item)
}

// ModuleSearchPath returns the module roots, highest precedence first.
func (m *Modification) ModuleSearchPath() []string {
	return m.searchPath(m.manager.ModulesRoot(), m.ModuleOverlay)
}

// BundleSearchPath returns the bundle roots, highest precedence first.
func (m *Modification) BundleSearchPath() []string {
	return m.searchPath(m.manager.BundlesRoot(), m.BundleOverlay)
}

func (m *Modification) searchPath(base string, overlay func(string) string) []string {
	roots := make([]string, 0, len(m.staged.Patches)+1)
	for i := len(m.staged.Patches) - 1; i >= 0; i-- {
		root := overlay(m.staged.Patches[i])
		if !m.invalidated[root] {
			roots = append(roots, root)
		}
	}
	return append(roots, base)
}

// ModuleOverlay returns the module overlay root of a patch in this stream.
func (m *Modification) ModuleOverlay(patchID string) string {
	return m.manager.ModuleOverlay(m.staged.Name, patchID)
}

// BundleOverlay returns the bundle overlay root of a patch in this stream.
func (m *Modification) BundleOverlay(patchID string) string {
	return m.manager.BundleOverlay(m.staged.Name, patchID)
}

// InvalidateRoot excludes an overlay root from the search paths for the rest
// of the transaction.
func (m *Modification) InvalidateRoot(root string) {
	m.invalidated[root] = true
}

// RecordChange records an executed modification and its rollback entry.
func (m *Modification) RecordChange(original, rollback content.Modification) {
	m.changes = append(m.changes, Change{Original: original, Rollback: rollback})
}

// Changes returns the recorded changes in execution order.
func (m *Modification) Changes() []Change {
	return append([]Change(nil), m.changes...)
}

// TmpDir returns the scratch directory of the transaction.
func (m *Modification) TmpDir() string {
	return filepath.Join(m.manager.store.Dir(), state.TmpDir, m.id)
}

// RecordDir returns the history directory of a patch in this stream.
func (m *Modification) RecordDir(patchID string) string {
	return m.manager.RecordDir(m.staged.Name, patchID)
}

// AddPatch stages a newly applied patch and its history record.
func (m *Modification) AddPatch(record *state.PatchRecord) {
	m.records = append(m.records, record)
	m.staged.AddPatch(record.PatchID)
}

// RemovePatch stages the removal of a rolled back patch. Its overlays and
// history are deleted on commit.
func (m *Modification) RemovePatch(patchID string) {
	m.staged.RemovePatch(patchID)
	m.removed = append(m.removed, patchID)
}

// Deactivate stages a patch as inactive while keeping its history.
func (m *Modification) Deactivate(patchID string) {
	m.staged.Deactivate(patchID)
}

// Reactivate stages previously deactivated patches as active again.
func (m *Modification) Reactivate(patchIDs ...string) {
	m.staged.Reactivate(patchIDs...)
}

// Commit persists the staged history records and stream state, deletes the
// overlays and history of removed patches, and releases the stream.
// Committing twice is a no-op.
func (m *Modification) Commit() error {
	if m.closed {
		if m.committed {
			return nil
		}
		return ErrTransactionClosed
	}

	if m.callback != nil {
		if err := m.callback.Completed(m); err != nil {
			return fmt.Errorf("modification %s not committed: %w", m.id, err)
		}
	}

	rollback := make([]content.Modification, 0, len(m.changes))
	for _, c := range m.changes {
		rollback = append(rollback, c.Rollback)
	}

	store := m.manager.store
	for _, record := range m.records {
		if record.Rollback == nil {
			record.Rollback = rollback
		}
		if record.Transaction == "" {
			record.Transaction = m.id
		}
		if record.AppliedAt.IsZero() {
			record.AppliedAt = m.manager.clock.Now()
		}
		if err := store.SaveRecord(m.staged.Name, record); err != nil {
			return err
		}
	}

	if err := m.manager.commit(m.staged); err != nil {
		return err
	}
	m.closed = true
	m.committed = true
	m.manager.release(m.staged.Name)

	for _, id := range m.removed {
		m.removeOverlays(id)
		if err := store.DeleteRecord(m.staged.Name, id); err != nil {
			m.manager.logger.Warnf("Failed to delete history of %s: %v", id, err)
		}
	}
	m.removeTmp()
	m.manager.logger.Debugf("Committed modification %s of stream %s", m.id, m.staged.Name)
	return nil
}

// Cancel reverts the recorded changes through the callback, removes what the
// transaction created and releases the stream. Cancelling twice is a no-op.
func (m *Modification) Cancel() error {
	if m.closed {
		if !m.committed {
			return nil
		}
		return ErrTransactionClosed
	}

	var errs []error
	if m.callback != nil {
		if err := m.callback.Canceled(m); err != nil {
			errs = append(errs, err)
		}
	}

	for _, record := range m.records {
		m.removeOverlays(record.PatchID)
		if err := m.manager.store.DeleteRecord(m.staged.Name, record.PatchID); err != nil {
			errs = append(errs, err)
		}
	}
	m.removeTmp()

	m.changes = nil
	m.closed = true
	m.manager.release(m.staged.Name)
	m.manager.logger.Debugf("Cancelled modification %s of stream %s", m.id, m.staged.Name)
	return errors.Join(errs...)
}

func (m *Modification) removeOverlays(patchID string) {
	if err := m.manager.fs.ValidateIdentifier(patchID); err != nil {
		m.manager.logger.Warnf("Refusing to remove overlays of %q: %v", patchID, err)
		return
	}
	for _, root := range []string{m.ModuleOverlay(patchID), m.BundleOverlay(patchID)} {
		if err := m.manager.fs.RemoveAll(root); err != nil {
			m.manager.logger.Warnf("Failed to remove overlay %s: %v", root, err)
		}
	}
}

func (m *Modification) removeTmp() {
	if err := m.manager.fs.RemoveAll(m.TmpDir()); err != nil {
		m.manager.logger.Warnf("Failed to remove %s: %v", m.TmpDir(), err)
	}
}
