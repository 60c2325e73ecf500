// Package installation manages an installed product tree and the
// transactions that modify it.
//
// An installation home holds misc files at their relative paths, modules and
// bundles under modules/ and bundles/, and patchkit metadata under
// .installation/. Each patch stream has its own overlays below
// modules/.overlays/<stream>/<patch> (and likewise for bundles); a module
// resolves through the overlays of the active patches, newest first, before
// the base root.
package installation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/danieljhkim/patchkit/internal/clock"
	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/fsops"
	"github.com/danieljhkim/patchkit/internal/log"
	"github.com/danieljhkim/patchkit/internal/planner"
	"github.com/danieljhkim/patchkit/internal/state"
)

// Directory names inside an installation home.
const (
	MetadataDir = ".installation"
	OverlaysDir = ".overlays"
)

// Options configures a Manager.
type Options struct {
	// FS is the filesystem (default: fsops.RealFS)
	FS fsops.FS

	// Clock stamps history records (default: clock.RealClock)
	Clock clock.Clock

	// Logger receives transaction events (default: discard)
	Logger log.Logger

	// ConfigurationDirs are misc directories backed up with every patch
	ConfigurationDirs []string
}

// Manager provides access to one installation.
type Manager struct {
	home       string
	fs         fsops.FS
	store      *state.FileStateStore
	clock      clock.Clock
	logger     log.Logger
	configDirs []string

	mu    sync.Mutex
	state *state.InstallationState
	open  map[string]*Modification
}

// NewManager creates a manager for the installation at home.
func NewManager(home string, opts Options) *Manager {
	if opts.FS == nil {
		opts.FS = fsops.NewRealFS()
	}
	if opts.Clock == nil {
		opts.Clock = &clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	return &Manager{
		home:       home,
		fs:         opts.FS,
		store:      state.NewFileStateStore(opts.FS, filepath.Join(home, MetadataDir)),
		clock:      opts.Clock,
		logger:     opts.Logger,
		configDirs: opts.ConfigurationDirs,
		open:       make(map[string]*Modification),
	}
}

// Home returns the installation home.
func (m *Manager) Home() string { return m.home }

// FS returns the filesystem the manager mutates the installation through.
func (m *Manager) FS() fsops.FS { return m.fs }

// Store returns the state store of the installation.
func (m *Manager) Store() state.StateStore { return m.store }

// ConfigurationDirs returns the configuration directories backed up with patches.
func (m *Manager) ConfigurationDirs() []string {
	return append([]string(nil), m.configDirs...)
}

// Load reads the installation state.
func (m *Manager) Load() error {
	st, err := m.store.LoadInstallation()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w at %s", ErrNotInstalled, m.home)
		}
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = st
	return nil
}

// Init initializes the installation metadata with one stream.
func (m *Manager) Init(name, stream, version string) error {
	if err := m.fs.ValidateIdentifier(stream); err != nil {
		return fmt.Errorf("invalid stream name: %w", err)
	}
	if _, err := m.store.LoadInstallation(); err == nil {
		return fmt.Errorf("%w at %s", ErrAlreadyInstalled, m.home)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	st := state.NewInstallationState(name, stream, version)
	for _, dir := range []string{content.ModulesDir, content.BundlesDir} {
		if err := m.fs.MkdirAll(filepath.Join(m.home, dir), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := m.store.SaveInstallation(st); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = st
	return nil
}

// AddStream registers another patch stream.
func (m *Manager) AddStream(name, version string) error {
	if err := m.fs.ValidateIdentifier(name); err != nil {
		return fmt.Errorf("invalid stream name: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return ErrNotInstalled
	}
	if m.state.Stream(name) != nil {
		return fmt.Errorf("stream %s already exists", name)
	}

	next := copyInstallation(m.state)
	next.Streams = append(next.Streams, state.NewStreamState(name, version))
	if err := m.store.SaveInstallation(next); err != nil {
		return err
	}
	m.state = next
	return nil
}

// Name returns the product name.
func (m *Manager) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return ""
	}
	return m.state.Name
}

// Stream returns a copy of the named stream's state.
func (m *Manager) Stream(name string) (*state.StreamState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, ErrNotInstalled
	}
	st := m.state.Stream(name)
	if st == nil {
		return nil, fmt.Errorf("%w: %s", ErrStreamNotFound, name)
	}
	return copyStream(st), nil
}

// Streams returns the stream names in sorted order.
func (m *Manager) Streams() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil
	}
	names := make([]string, 0, len(m.state.Streams))
	for _, st := range m.state.Streams {
		names = append(names, st.Name)
	}
	sort.Strings(names)
	return names
}

// FindPatch returns the stream in which patchID is active.
func (m *Manager) FindPatch(patchID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return "", ErrNotInstalled
	}
	found := m.state.StreamsWithPatch(patchID)
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrPatchNotFound, patchID)
	case 1:
		return found[0].Name, nil
	default:
		names := make([]string, 0, len(found))
		for _, st := range found {
			names = append(names, st.Name)
		}
		return "", fmt.Errorf("%w: %s in %v", ErrAmbiguousPatch, patchID, names)
	}
}

// Record loads the history record of a patch.
func (m *Manager) Record(stream, patchID string) (*state.PatchRecord, error) {
	return m.store.LoadRecord(stream, patchID)
}

// RecordDir returns the history directory of a patch.
func (m *Manager) RecordDir(stream, patchID string) string {
	return m.store.RecordDir(stream, patchID)
}

// ModulesRoot returns the base module root.
func (m *Manager) ModulesRoot() string {
	return filepath.Join(m.home, content.ModulesDir)
}

// BundlesRoot returns the base bundle root.
func (m *Manager) BundlesRoot() string {
	return filepath.Join(m.home, content.BundlesDir)
}

// ModuleOverlay returns the module overlay root of a patch.
func (m *Manager) ModuleOverlay(stream, patchID string) string {
	return filepath.Join(m.ModulesRoot(), OverlaysDir, stream, patchID)
}

// BundleOverlay returns the bundle overlay root of a patch.
func (m *Manager) BundleOverlay(stream, patchID string) string {
	return filepath.Join(m.BundlesRoot(), OverlaysDir, stream, patchID)
}

// ModifyInstallation opens a modification of a stream. At most one
// modification per stream may be open; it ends with Commit or Cancel.
func (m *Manager) ModifyInstallation(stream string, mode planner.Mode, callback Callback) (*Modification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, ErrNotInstalled
	}
	st := m.state.Stream(stream)
	if st == nil {
		return nil, fmt.Errorf("%w: %s", ErrStreamNotFound, stream)
	}
	if _, busy := m.open[stream]; busy {
		return nil, fmt.Errorf("%w: %s", ErrModificationInProgress, stream)
	}

	mod := newModification(m, copyStream(st), mode, callback)
	m.open[stream] = mod
	m.logger.Debugf("Opened %s modification %s of stream %s", mode, mod.ID(), stream)
	return mod, nil
}

// commit persists a staged stream and releases the stream.
func (m *Manager) commit(staged *state.StreamState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := copyInstallation(m.state)
	for i, st := range next.Streams {
		if st.Name == staged.Name {
			next.Streams[i] = copyStream(staged)
		}
	}
	if err := m.store.SaveInstallation(next); err != nil {
		return err
	}
	m.state = next
	return nil
}

func (m *Manager) release(stream string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.open, stream)
}

func copyStream(st *state.StreamState) *state.StreamState {
	return &state.StreamState{
		Name:    st.Name,
		Version: st.Version,
		Patches: append([]string{}, st.Patches...),
		Applied: append([]string{}, st.Applied...),
	}
}

func copyInstallation(s *state.InstallationState) *state.InstallationState {
	next := &state.InstallationState{Name: s.Name}
	for _, st := range s.Streams {
		next.Streams = append(next.Streams, copyStream(st))
	}
	return next
}
