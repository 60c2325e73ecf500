// Package hash provides content hashing for patch verification.
//
// Patch metadata records SHA-1 hashes of the content each modification expects
// and produces. Files hash to the digest of their bytes; directories hash to a
// digest over their sorted relative paths and file contents, so module and
// bundle trees compare as a unit. Missing content hashes to NoContent.
package hash

import (
	"bytes"
	"crypto/sha1"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// NoContent is the hash of absent content.
var NoContent = []byte{}

// Marker files that make a module or bundle directory count as absent.
const (
	ModuleXML          = "module.xml"
	ModuleAbsentElem   = "module-absent"
	BundleAbsentMarker = "bundle.absent"
)

// Hasher provides an abstraction for content hashing operations.
type Hasher interface {
	// HashFile computes the hash of the file at the given path.
	HashFile(path string) ([]byte, error)

	// HashPath hashes a file or directory tree; missing paths hash to NoContent.
	HashPath(path string) ([]byte, error)

	// HashModule hashes a module or bundle directory; directories carrying an
	// absence marker hash to NoContent.
	HashModule(path string) ([]byte, error)
}

// SHA1Hasher implements Hasher using SHA-1.
type SHA1Hasher struct{}

// NewSHA1Hasher creates a new SHA1Hasher.
func NewSHA1Hasher() *SHA1Hasher {
	return &SHA1Hasher{}
}

// Equal compares two hashes; nil and empty are equal.
func Equal(a, b []byte) bool {
	return bytes.Equal(a, b)
}

// HashBytes returns the hash of a byte slice.
func HashBytes(data []byte) []byte {
	sum := sha1.Sum(data)
	return sum[:]
}

// HashFile computes the SHA-1 hash of the file at the given path.
func (h *SHA1Hasher) HashFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	hasher := sha1.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return hasher.Sum(nil), nil
}

// HashPath hashes a file or directory tree.
func (h *SHA1Hasher) HashPath(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NoContent, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return h.HashFile(path)
	}
	return h.hashDir(path)
}

// HashModule hashes a module or bundle directory.
func (h *SHA1Hasher) HashModule(path string) ([]byte, error) {
	absent, err := IsAbsent(path)
	if err != nil {
		return nil, err
	}
	if absent {
		return NoContent, nil
	}
	return h.HashPath(path)
}

// hashDir walks the tree in lexical order and digests each relative path,
// followed by the content for regular files.
func (h *SHA1Hasher) hashDir(root string) ([]byte, error) {
	hasher := sha1.New()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			_, _ = io.WriteString(hasher, "d:"+rel+"\n")
			return nil
		}
		_, _ = io.WriteString(hasher, "f:"+rel+"\n")
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		_, err = io.Copy(hasher, f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to hash directory %s: %w", root, err)
	}
	return hasher.Sum(nil), nil
}

// IsAbsent reports whether dir holds an absence marker: a module.xml whose
// root element is module-absent, or a bundle.absent file.
func IsAbsent(dir string) (bool, error) {
	if _, err := os.Stat(filepath.Join(dir, BundleAbsentMarker)); err == nil {
		return true, nil
	}

	f, err := os.Open(filepath.Join(dir, ModuleXML))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open module descriptor: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	decoder := xml.NewDecoder(f)
	for {
		tok, err := decoder.Token()
		if err != nil {
			// Empty or unparseable descriptors are real content, not markers.
			return false, nil
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local == ModuleAbsentElem, nil
		}
	}
}
