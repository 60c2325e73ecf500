package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danieljhkim/patchkit/internal/content"
	"github.com/danieljhkim/patchkit/internal/engine"
)

func TestFormatJSON(t *testing.T) {
	info := engine.PatchInfo{
		ID:            "cp-1",
		Type:          "cumulative",
		Stream:        "base",
		VersionBefore: "1.0.0",
		VersionAfter:  "1.1.0",
		Invalidated:   []string{"one-off-1"},
	}

	got, err := formatJSON(info)
	if err != nil {
		t.Fatalf("formatJSON() error = %v", err)
	}

	var decoded engine.PatchInfo
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("formatJSON() produced invalid JSON: %v", err)
	}
	if diff := cmp.Diff(info, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if !contains(got, "\n  \"versionAfter\": \"1.1.0\"") {
		t.Errorf("expected indented output, got %q", got)
	}
}

func TestFormatError(t *testing.T) {
	err := fmt.Errorf("apply one-off-1: %w", &engine.ConflictError{
		PatchID: "one-off-1",
		Items:   []content.Item{content.NewMiscItem("bin/run.sh", nil, false, false)},
	})

	got := formatError(err)
	if !contains(got, "Error:") || !contains(got, "one-off-1") {
		t.Errorf("formatError() = %q, expected the prefix and the wrapped message", got)
	}
}

func TestExecute_ReportsError(t *testing.T) {
	var errBuf bytes.Buffer
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs([]string{"no-such-command"})
	defer rootCmd.SetErr(nil)

	if err := Execute(); err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !contains(errBuf.String(), "Error:") {
		t.Errorf("expected formatted error on stderr, got %q", errBuf.String())
	}
}

func TestOutputJSON(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := outputJSON(engine.HistoryResult{Streams: []engine.StreamHistory{{Stream: "base", Version: "1.0.0"}}})

	_ = w.Close()
	os.Stdout = oldStdout
	if err != nil {
		t.Fatalf("outputJSON() error = %v", err)
	}

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)

	var got engine.HistoryResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("outputJSON() produced invalid JSON: %v", err)
	}
	if len(got.Streams) != 1 || got.Streams[0].Stream != "base" {
		t.Errorf("unexpected output: %+v", got)
	}
}

func TestPrintFunctions(t *testing.T) {
	oldStdout := os.Stdout
	oldStderr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	PrintSuccess("Applied one-off-1")
	PrintWarning("Skipped one-off-2: already applied")
	PrintError("misc:bin/run.sh")
	PrintInfo("Next steps:")

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var bufOut, bufErr bytes.Buffer
	_, _ = bufOut.ReadFrom(rOut)
	_, _ = bufErr.ReadFrom(rErr)

	if !contains(bufOut.String(), "Applied one-off-1") {
		t.Errorf("PrintSuccess should write to stdout, got %q", bufOut.String())
	}
	if !contains(bufErr.String(), "misc:bin/run.sh") {
		t.Errorf("PrintError should write to stderr, got %q", bufErr.String())
	}
}
