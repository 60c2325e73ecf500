package content

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewMiscItem(t *testing.T) {
	tests := []struct {
		relPath  string
		wantName string
		wantPath []string
	}{
		{relPath: "README.txt", wantName: "README.txt"},
		{relPath: "bin/standalone.sh", wantName: "standalone.sh", wantPath: []string{"bin"}},
		{relPath: "./a/b/c.xml", wantName: "c.xml", wantPath: []string{"a", "b"}},
		{relPath: "a\\b.txt", wantName: "b.txt", wantPath: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			item := NewMiscItem(tt.relPath, nil, false, false)
			if item.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", item.Name, tt.wantName)
			}
			if diff := cmp.Diff(tt.wantPath, item.Path); diff != "" {
				t.Errorf("Path mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestItem_WithHashDoesNotAlias(t *testing.T) {
	item := NewMiscItem("a/b/c.txt", []byte{1}, false, false)
	copied := item.WithHash([]byte{2})
	copied.Path[0] = "changed"

	if item.Path[0] != "a" {
		t.Errorf("original path modified: %v", item.Path)
	}
	if !item.Hash.Equal([]byte{1}) {
		t.Errorf("original hash modified: %s", item.Hash)
	}
}

func TestHash_TextRoundTrip(t *testing.T) {
	h, err := ParseHash("0a0b")
	if err != nil {
		t.Fatalf("ParseHash() error = %v", err)
	}
	text, err := h.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(text) != "0a0b" {
		t.Errorf("MarshalText() = %q, want %q", text, "0a0b")
	}

	empty, err := ParseHash("")
	if err != nil {
		t.Fatalf("ParseHash(\"\") error = %v", err)
	}
	if !empty.IsEmpty() || !empty.Equal(nil) {
		t.Error("expected empty hash to equal nil")
	}

	if _, err := ParseHash("zz"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestModulePath(t *testing.T) {
	got := ModulePath("/root", "org.jboss.foo", "")
	want := filepath.Join("/root", "org", "jboss", "foo", "main")
	if got != want {
		t.Errorf("ModulePath() = %q, want %q", got, want)
	}
}

func TestCondition_IsSatisfied(t *testing.T) {
	existing := map[string]bool{"appclient": true}
	exists := func(item Item) bool { return existing[item.RelativePath()] }

	var none *Condition
	if !none.IsSatisfied(exists) {
		t.Error("nil condition should be satisfied")
	}
	if !(&Condition{Requires: []string{"appclient"}}).IsSatisfied(exists) {
		t.Error("expected condition to be satisfied")
	}
	if (&Condition{Requires: []string{"appclient", "welcome-content"}}).IsSatisfied(exists) {
		t.Error("expected condition to fail for missing path")
	}
}
