package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apexlog "github.com/apex/log"
	"github.com/apex/log/handlers/memory"

	"github.com/danieljhkim/patchkit/internal/config"
	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/hash"
	"github.com/danieljhkim/patchkit/internal/installation"
	"github.com/danieljhkim/patchkit/internal/patch"
)

const (
	testStream  = "base"
	testVersion = "1.0.0"
	testModule  = "org.example.core"
	configDir   = "standalone/configuration"
)

// testEnv is an initialized installation with an engine on top of it.
type testEnv struct {
	t       *testing.T
	home    string
	engine  *Engine
	manager *installation.Manager
	logs    *memory.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	logs := memory.New()
	logger := &apexlog.Logger{Handler: logs, Level: apexlog.DebugLevel}

	mgr := installation.NewManager(home, installation.Options{
		Logger:            logger,
		ConfigurationDirs: []string{configDir},
	})
	if err := mgr.Init("product", testStream, testVersion); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	eng := New(mgr, hash.NewSHA1Hasher(), logger, config.Paths{Downloads: t.TempDir()})
	return &testEnv{t: t, home: home, engine: eng, manager: mgr, logs: logs}
}

// writeFile writes a file below the installation home.
func (env *testEnv) writeFile(rel, data string) {
	env.t.Helper()
	writeTestFile(env.t, filepath.Join(env.home, filepath.FromSlash(rel)), data)
}

// readFile returns the content of a file below the home, or "" when absent.
func (env *testEnv) readFile(rel string) (string, bool) {
	env.t.Helper()
	data, err := os.ReadFile(filepath.Join(env.home, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return "", false
	}
	if err != nil {
		env.t.Fatalf("failed to read %s: %v", rel, err)
	}
	return string(data), true
}

func (env *testEnv) assertFile(rel, want string) {
	env.t.Helper()
	got, ok := env.readFile(rel)
	if !ok {
		env.t.Errorf("%s does not exist, want %q", rel, want)
		return
	}
	if got != want {
		env.t.Errorf("%s = %q, want %q", rel, got, want)
	}
}

func (env *testEnv) assertNoFile(rel string) {
	env.t.Helper()
	if got, ok := env.readFile(rel); ok {
		env.t.Errorf("%s exists with %q, want absent", rel, got)
	}
}

// writeBaseModule installs a module into the base module root and returns its hash.
func (env *testEnv) writeBaseModule(name string, files map[string]string) string {
	env.t.Helper()
	dir := content.ModulePath(env.manager.ModulesRoot(), name, "")
	return writeModule(env.t, dir, files)
}

// moduleHash returns the hash of the module directory name resolves to in
// the committed stream state.
func (env *testEnv) moduleHash(name string) string {
	env.t.Helper()
	st, err := env.manager.Stream(testStream)
	if err != nil {
		env.t.Fatalf("Stream failed: %v", err)
	}
	roots := []string{}
	for i := len(st.Patches) - 1; i >= 0; i-- {
		roots = append(roots, env.manager.ModuleOverlay(testStream, st.Patches[i]))
	}
	roots = append(roots, env.manager.ModulesRoot())
	for _, root := range roots {
		dir := content.ModulePath(root, name, "")
		if _, err := os.Stat(dir); err == nil {
			h, err := hash.NewSHA1Hasher().HashModule(dir)
			if err != nil {
				env.t.Fatalf("HashModule failed: %v", err)
			}
			return content.Hash(h).String()
		}
	}
	return ""
}

func (env *testEnv) patches() []string {
	env.t.Helper()
	st, err := env.manager.Stream(testStream)
	if err != nil {
		env.t.Fatalf("Stream failed: %v", err)
	}
	return st.Patches
}

func (env *testEnv) version() string {
	env.t.Helper()
	st, err := env.manager.Stream(testStream)
	if err != nil {
		env.t.Fatalf("Stream failed: %v", err)
	}
	return st.Version
}

// apply applies the patch at path and commits it.
func (env *testEnv) apply(path string) *PatchingResult {
	env.t.Helper()
	result, err := env.engine.Apply(context.Background(), &ApplyRequest{Source: SourceFor(path)})
	if err != nil {
		env.t.Fatalf("Apply failed: %v", err)
	}
	if err := result.Commit(); err != nil {
		env.t.Fatalf("Commit failed: %v", err)
	}
	return result
}

// rollback rolls back a patch and commits the rollback.
func (env *testEnv) rollback(req *RollbackRequest) *PatchingResult {
	env.t.Helper()
	result, err := env.engine.Rollback(context.Background(), req)
	if err != nil {
		env.t.Fatalf("Rollback failed: %v", err)
	}
	if err := result.Commit(); err != nil {
		env.t.Fatalf("Commit failed: %v", err)
	}
	return result
}

// messages returns the logged messages with the given prefix.
func (env *testEnv) messages(prefix string) []string {
	var msgs []string
	for _, e := range env.logs.Entries {
		if strings.HasPrefix(e.Message, prefix) {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// patchBuilder writes a patch directory with its patch.xml.
type patchBuilder struct {
	t        *testing.T
	dir      string
	id       string
	stream   string
	version  string
	upgrade  string
	misc     []string
	modules  []string
	metadata string
}

func newPatch(t *testing.T, id string) *patchBuilder {
	t.Helper()
	return &patchBuilder{t: t, dir: filepath.Join(t.TempDir(), id), id: id, stream: testStream, version: testVersion, metadata: patch.MetadataFile}
}

// at places the patch directory at dir. It must be called before content is added.
func (b *patchBuilder) at(dir string) *patchBuilder {
	b.dir = dir
	return b
}

// inStream sets the stream the patch targets.
func (b *patchBuilder) inStream(stream string) *patchBuilder {
	b.stream = stream
	return b
}

// appliesTo sets the version the patch was built against.
func (b *patchBuilder) appliesTo(version string) *patchBuilder {
	b.version = version
	return b
}

// cumulative makes the patch upgrade the stream to version.
func (b *patchBuilder) cumulative(version string) *patchBuilder {
	b.upgrade = version
	return b
}

// metadataFile sets the name of the written metadata file.
func (b *patchBuilder) metadataFile(name string) *patchBuilder {
	b.metadata = name
	return b
}

func (b *patchBuilder) addMisc(path, data string) *patchBuilder {
	b.writeMisc(path, data)
	b.misc = append(b.misc, fmt.Sprintf(`<added path=%q hash=%q/>`, path, hashOf(data)))
	return b
}

// addMiscWithHash ships data but declares hash as its content hash.
func (b *patchBuilder) addMiscWithHash(path, data, declared string) *patchBuilder {
	b.writeMisc(path, data)
	b.misc = append(b.misc, fmt.Sprintf(`<added path=%q hash=%q/>`, path, hashOf(declared)))
	return b
}

func (b *patchBuilder) addMiscRequires(path, data, requires string) *patchBuilder {
	b.writeMisc(path, data)
	b.misc = append(b.misc, fmt.Sprintf(`<added path=%q hash=%q><requires path=%q/></added>`, path, hashOf(data), requires))
	return b
}

func (b *patchBuilder) updateMisc(path, data, existing string) *patchBuilder {
	b.writeMisc(path, data)
	b.misc = append(b.misc, fmt.Sprintf(`<updated path=%q hash=%q existing-hash=%q/>`, path, hashOf(data), hashOf(existing)))
	return b
}

func (b *patchBuilder) removeMisc(path, existing string) *patchBuilder {
	b.misc = append(b.misc, fmt.Sprintf(`<removed path=%q existing-hash=%q/>`, path, hashOf(existing)))
	return b
}

func (b *patchBuilder) updateModule(name string, files map[string]string, existingHash string) *patchBuilder {
	dir := content.ModulePath(filepath.Join(b.dir, content.ModulesDir), name, "")
	h := writeModule(b.t, dir, files)
	b.modules = append(b.modules, fmt.Sprintf(`<updated name=%q hash=%q existing-hash=%q/>`, name, h, existingHash))
	return b
}

func (b *patchBuilder) removeModule(name, existingHash string) *patchBuilder {
	b.modules = append(b.modules, fmt.Sprintf(`<removed name=%q existing-hash=%q/>`, name, existingHash))
	return b
}

func (b *patchBuilder) writeMisc(path, data string) {
	writeTestFile(b.t, filepath.Join(b.dir, content.MiscDir, filepath.FromSlash(path)), data)
}

// build writes the metadata and returns the patch directory.
func (b *patchBuilder) build() string {
	b.t.Helper()
	kind := "<one-off/>"
	if b.upgrade != "" {
		kind = fmt.Sprintf(`<upgrade to-version=%q/>`, b.upgrade)
	}
	xml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<patch id=%q>
  <description>test patch %s</description>
  <identity name=%q version=%q/>
  %s
  <misc-files>%s</misc-files>
  <modules>%s</modules>
</patch>`, b.id, b.id, b.stream, b.version, kind, strings.Join(b.misc, "\n"), strings.Join(b.modules, "\n"))
	writeTestFile(b.t, filepath.Join(b.dir, b.metadata), xml)
	return b.dir
}

func hashOf(data string) string {
	return content.Hash(hash.HashBytes([]byte(data))).String()
}

func writeModule(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	for rel, data := range files {
		writeTestFile(t, filepath.Join(dir, filepath.FromSlash(rel)), data)
	}
	h, err := hash.NewSHA1Hasher().HashModule(dir)
	if err != nil {
		t.Fatalf("HashModule failed: %v", err)
	}
	return content.Hash(h).String()
}

func writeTestFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}
