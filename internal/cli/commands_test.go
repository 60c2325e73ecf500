package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/danieljhkim/patchkit/internal/config"
	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/engine"
	"github.com/danieljhkim/patchkit/internal/hash"
	"github.com/danieljhkim/patchkit/internal/installation"
)

// setupTestEnv points patchkit at a temporary root and returns an empty
// installation home.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	t.Setenv(config.EnvRoot, filepath.Join(t.TempDir(), "root"))
	t.Setenv(config.EnvHome, "")
	t.Setenv(config.EnvLogLevel, "error")
	return t.TempDir()
}

// execute runs the root command with fresh global flags and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	rootCmd.SetArgs(args)
	var errBuf bytes.Buffer
	rootCmd.SetErr(&errBuf)
	execErr := rootCmd.Execute()

	_ = w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String(), execErr
}

// resetFlags restores every flag of the command tree to its default, since
// parsed values and their changed state outlive a single execution.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func initInstallation(t *testing.T, home string) {
	t.Helper()
	if _, err := execute(t, "init", "--home", home, "--product-version", "1.0.0"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
}

// writePatch writes an unpacked one-off patch for stream base 1.0.0.
func writePatch(t *testing.T, id, misc string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), id)
	writeTestFile(t, filepath.Join(dir, content.MiscDir, "bin", "run.sh"), "v2")
	metadata := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<patch id=%q>
  <description>fixes run.sh</description>
  <identity name="base" version="1.0.0"/>
  <one-off/>
  <misc-files>%s</misc-files>
</patch>`, id, misc)
	writeTestFile(t, filepath.Join(dir, "patch.xml"), metadata)
	return dir
}

func hashOf(data string) string {
	return content.Hash(hash.HashBytes([]byte(data))).String()
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

func TestInitCommand(t *testing.T) {
	home := setupTestEnv(t)

	out, err := execute(t, "init", "--home", home, "--product-version", "1.0.0", "--json")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	want := map[string]string{"home": home, "name": "product", "stream": "base", "version": "1.0.0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("init output mismatch (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(filepath.Join(home, installation.MetadataDir, "installation.toml")); err != nil {
		t.Errorf("expected installation metadata: %v", err)
	}

	_, err = execute(t, "init", "--home", home, "--product-version", "1.0.0")
	if !errors.Is(err, installation.ErrAlreadyInstalled) {
		t.Errorf("second init error = %v, want ErrAlreadyInstalled", err)
	}
}

func TestApplyAndRollbackCommands(t *testing.T) {
	home := setupTestEnv(t)
	initInstallation(t, home)
	dir := writePatch(t, "one-off-1", fmt.Sprintf(`<added path="bin/run.sh" hash=%q/>`, hashOf("v2")))

	out, err := execute(t, "apply", dir, "--home", home, "--json")
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	var applied []engine.PatchInfo
	if err := json.Unmarshal([]byte(out), &applied); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if len(applied) != 1 || applied[0].ID != "one-off-1" || applied[0].Stream != "base" {
		t.Errorf("unexpected apply output: %+v", applied)
	}
	data, err := os.ReadFile(filepath.Join(home, "bin", "run.sh"))
	if err != nil || string(data) != "v2" {
		t.Errorf("bin/run.sh = %q, %v; want v2", data, err)
	}

	out, err = execute(t, "history", "--home", home, "--json")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	var history engine.HistoryResult
	if err := json.Unmarshal([]byte(out), &history); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if len(history.Streams) != 1 || len(history.Streams[0].Entries) != 1 {
		t.Fatalf("unexpected history: %+v", history)
	}
	if entry := history.Streams[0].Entries[0]; entry.PatchID != "one-off-1" || !entry.Active {
		t.Errorf("unexpected history entry: %+v", entry)
	}

	if _, err := execute(t, "rollback", "one-off-1", "--home", home); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "bin", "run.sh")); !os.IsNotExist(err) {
		t.Errorf("expected bin/run.sh to be removed, stat error = %v", err)
	}

	out, err = execute(t, "info", "--home", home, "--json")
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	var info engine.InfoResult
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if len(info.Streams) != 1 || len(info.Streams[0].Patches) != 0 {
		t.Errorf("expected no active patches, got %+v", info)
	}
}

func TestApplyCommand_Conflict(t *testing.T) {
	home := setupTestEnv(t)
	initInstallation(t, home)
	writeTestFile(t, filepath.Join(home, "bin", "run.sh"), "custom")
	dir := writePatch(t, "one-off-1", fmt.Sprintf(`<updated path="bin/run.sh" hash=%q existing-hash=%q/>`, hashOf("v2"), hashOf("v1")))

	_, err := execute(t, "apply", dir, "--home", home)
	if !errors.Is(err, engine.ErrConflict) {
		t.Fatalf("apply error = %v, want ErrConflict", err)
	}

	if _, err := execute(t, "apply", dir, "--home", home, "--override-all"); err != nil {
		t.Fatalf("apply --override-all failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(home, "bin", "run.sh"))
	if err != nil || string(data) != "v2" {
		t.Errorf("bin/run.sh = %q, %v; want v2", data, err)
	}
}

func TestCommands_NotInstalled(t *testing.T) {
	home := setupTestEnv(t)

	for _, args := range [][]string{
		{"info", "--home", home},
		{"history", "--home", home},
		{"rollback", "one-off-1", "--home", home},
	} {
		t.Run(args[0], func(t *testing.T) {
			_, err := execute(t, args...)
			if !errors.Is(err, installation.ErrNotInstalled) {
				t.Errorf("error = %v, want ErrNotInstalled", err)
			}
		})
	}
}

func TestCommands_InvalidArgs(t *testing.T) {
	setupTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"apply without source", []string{"apply"}},
		{"rollback without patch", []string{"rollback"}},
		{"history with args", []string{"history", "extra"}},
		{"conflicting policies", []string{"apply", "patch.zip", "--override-all", "--preserve-all"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCommandHelp(t *testing.T) {
	commands := []string{"apply", "rollback", "history", "info", "init"}

	for _, cmd := range commands {
		t.Run(cmd, func(t *testing.T) {
			rootCmd.SetArgs([]string{cmd, "--help"})
			var buf bytes.Buffer
			rootCmd.SetOut(&buf)

			err := rootCmd.Execute()
			if err != nil {
				t.Errorf("Execute() for %s --help error = %v", cmd, err)
			}

			output := buf.String()
			if output == "" {
				t.Errorf("expected help output for %s, got empty", cmd)
			}
		})
	}
}
