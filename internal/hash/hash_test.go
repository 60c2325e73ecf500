package hash

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func TestSHA1Hasher_HashFile(t *testing.T) {
	tmpDir := t.TempDir()
	hasher := NewSHA1Hasher()

	t.Run("hash matches digest of bytes", func(t *testing.T) {
		path := filepath.Join(tmpDir, "test.txt")
		writeFile(t, path, "hello world")

		got, err := hasher.HashFile(path)
		if err != nil {
			t.Fatalf("HashFile failed: %v", err)
		}
		if !Equal(got, HashBytes([]byte("hello world"))) {
			t.Errorf("HashFile = %x, want %x", got, HashBytes([]byte("hello world")))
		}
	})

	t.Run("different content produces different hash", func(t *testing.T) {
		file1 := filepath.Join(tmpDir, "file1.txt")
		file2 := filepath.Join(tmpDir, "file2.txt")
		writeFile(t, file1, "content A")
		writeFile(t, file2, "content B")

		hash1, err := hasher.HashFile(file1)
		if err != nil {
			t.Fatalf("HashFile failed for file1: %v", err)
		}
		hash2, err := hasher.HashFile(file2)
		if err != nil {
			t.Fatalf("HashFile failed for file2: %v", err)
		}
		if Equal(hash1, hash2) {
			t.Error("Different files produced same hash")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := hasher.HashFile(filepath.Join(tmpDir, "missing")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestSHA1Hasher_HashPath(t *testing.T) {
	hasher := NewSHA1Hasher()

	t.Run("missing path hashes to NoContent", func(t *testing.T) {
		got, err := hasher.HashPath(filepath.Join(t.TempDir(), "missing"))
		if err != nil {
			t.Fatalf("HashPath failed: %v", err)
		}
		if !Equal(got, NoContent) {
			t.Errorf("HashPath = %x, want NoContent", got)
		}
	})

	t.Run("identical trees hash the same", func(t *testing.T) {
		a := t.TempDir()
		b := t.TempDir()
		for _, root := range []string{a, b} {
			writeFile(t, filepath.Join(root, "module.xml"), "<module/>")
			writeFile(t, filepath.Join(root, "lib", "foo.jar"), "jar")
		}

		hashA, err := hasher.HashPath(a)
		if err != nil {
			t.Fatalf("HashPath(a) failed: %v", err)
		}
		hashB, err := hasher.HashPath(b)
		if err != nil {
			t.Fatalf("HashPath(b) failed: %v", err)
		}
		if !Equal(hashA, hashB) {
			t.Errorf("identical trees hashed differently: %x vs %x", hashA, hashB)
		}
	})

	t.Run("renamed file changes tree hash", func(t *testing.T) {
		a := t.TempDir()
		b := t.TempDir()
		writeFile(t, filepath.Join(a, "one.jar"), "jar")
		writeFile(t, filepath.Join(b, "two.jar"), "jar")

		hashA, _ := hasher.HashPath(a)
		hashB, _ := hasher.HashPath(b)
		if Equal(hashA, hashB) {
			t.Error("expected different hashes for different file names")
		}
	})
}

func TestSHA1Hasher_HashModule(t *testing.T) {
	hasher := NewSHA1Hasher()

	tests := []struct {
		name      string
		files     map[string]string
		wantEmpty bool
	}{
		{
			name:      "regular module",
			files:     map[string]string{"module.xml": `<module name="org.foo"/>`},
			wantEmpty: false,
		},
		{
			name:      "absent module marker",
			files:     map[string]string{"module.xml": `<?xml version="1.0"?><module-absent name="org.foo" slot="main"/>`},
			wantEmpty: true,
		},
		{
			name:      "absent bundle marker",
			files:     map[string]string{BundleAbsentMarker: ""},
			wantEmpty: true,
		},
		{
			name:      "missing directory",
			files:     nil,
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "org", "foo", "main")
			for name, content := range tt.files {
				writeFile(t, filepath.Join(dir, name), content)
			}

			got, err := hasher.HashModule(dir)
			if err != nil {
				t.Fatalf("HashModule failed: %v", err)
			}
			if (len(got) == 0) != tt.wantEmpty {
				t.Errorf("HashModule = %x, wantEmpty %v", got, tt.wantEmpty)
			}
		})
	}
}
