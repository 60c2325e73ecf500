package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/danieljhkim/patchkit/internal/fsops"
)

// File and directory names below the installation metadata directory.
const (
	InstallationFile = "installation.toml"
	HistoryDir       = "history"
	HistoryFile      = "history.json"
	TmpDir           = "tmp"
)

// StateStore provides an interface for persisting installation state and patch history.
type StateStore interface {
	// LoadInstallation loads the installation state.
	// Returns os.ErrNotExist if the installation has not been initialized.
	LoadInstallation() (*InstallationState, error)

	// SaveInstallation saves the installation state atomically.
	SaveInstallation(state *InstallationState) error

	// LoadRecord loads the history record of a patch.
	// Returns os.ErrNotExist if the patch has no history.
	LoadRecord(stream, patchID string) (*PatchRecord, error)

	// SaveRecord saves the history record of a patch atomically.
	SaveRecord(stream string, record *PatchRecord) error

	// DeleteRecord deletes the history of a patch, including its backups.
	DeleteRecord(stream, patchID string) error

	// RecordDir returns the directory holding the history of a patch.
	RecordDir(stream, patchID string) string
}

// FileStateStore implements StateStore with a TOML installation file and
// JSON history records on disk.
type FileStateStore struct {
	fs  fsops.FS
	dir string
}

// NewFileStateStore creates a new FileStateStore rooted at the installation
// metadata directory.
func NewFileStateStore(fs fsops.FS, dir string) *FileStateStore {
	return &FileStateStore{
		fs:  fs,
		dir: dir,
	}
}

// Dir returns the installation metadata directory.
func (s *FileStateStore) Dir() string {
	return s.dir
}

// LoadInstallation loads the installation state.
func (s *FileStateStore) LoadInstallation() (*InstallationState, error) {
	path := filepath.Join(s.dir, InstallationFile)

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read installation state: %w", err)
	}

	var state InstallationState
	if _, err := toml.Decode(string(data), &state); err != nil {
		return nil, fmt.Errorf("failed to decode installation state: %w", err)
	}
	for _, st := range state.Streams {
		if st.Patches == nil {
			st.Patches = []string{}
		}
		if st.Applied == nil {
			st.Applied = []string{}
		}
	}

	return &state, nil
}

// SaveInstallation saves the installation state atomically.
func (s *FileStateStore) SaveInstallation(state *InstallationState) error {
	path := filepath.Join(s.dir, InstallationFile)

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(state); err != nil {
		return fmt.Errorf("failed to encode installation state: %w", err)
	}

	if err := s.fs.AtomicWrite(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write installation state: %w", err)
	}

	return nil
}

// LoadRecord loads the history record of a patch.
func (s *FileStateStore) LoadRecord(stream, patchID string) (*PatchRecord, error) {
	path := filepath.Join(s.RecordDir(stream, patchID), HistoryFile)

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read history of %s: %w", patchID, err)
	}

	var record PatchRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history of %s: %w", patchID, err)
	}

	return &record, nil
}

// SaveRecord saves the history record of a patch atomically.
func (s *FileStateStore) SaveRecord(stream string, record *PatchRecord) error {
	if err := s.fs.ValidateIdentifier(record.PatchID); err != nil {
		return err
	}
	path := filepath.Join(s.RecordDir(stream, record.PatchID), HistoryFile)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history of %s: %w", record.PatchID, err)
	}

	if err := s.fs.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history of %s: %w", record.PatchID, err)
	}

	return nil
}

// DeleteRecord deletes the history of a patch, including its backups.
func (s *FileStateStore) DeleteRecord(stream, patchID string) error {
	for _, id := range []string{stream, patchID} {
		if err := s.fs.ValidateIdentifier(id); err != nil {
			return fmt.Errorf("refusing to delete history of %q: %w", patchID, err)
		}
	}
	if err := s.fs.RemoveAll(s.RecordDir(stream, patchID)); err != nil {
		return fmt.Errorf("failed to delete history of %s: %w", patchID, err)
	}
	return nil
}

// RecordDir returns the directory holding the history of a patch.
func (s *FileStateStore) RecordDir(stream, patchID string) string {
	return filepath.Join(s.dir, HistoryDir, stream, patchID)
}
