package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hidden")
	logger.Warnf("patch %s applied with warnings", "one-off-1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "patch one-off-1 applied with warnings") {
		t.Errorf("missing warn entry: %q", out)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestSetLevel(t *testing.T) {
	handler := memory.New()
	logger := &log.Logger{Handler: handler, Level: log.InfoLevel}

	if err := SetLevel(logger, ""); err != nil {
		t.Fatalf("SetLevel with empty level failed: %v", err)
	}
	if logger.Level != log.InfoLevel {
		t.Errorf("empty level changed logger level to %v", logger.Level)
	}

	if err := SetLevel(logger, "debug"); err != nil {
		t.Fatalf("SetLevel failed: %v", err)
	}
	var l Logger = logger
	l.Debug("task prepared")

	if len(handler.Entries) != 1 || handler.Entries[0].Message != "task prepared" {
		t.Errorf("entries = %+v", handler.Entries)
	}
}

func TestDiscard(t *testing.T) {
	var l Logger = Discard()
	l.Error("dropped")
}
