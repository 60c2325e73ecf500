package content

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Loader supplies the new content of items.
type Loader interface {
	// OpenContentStream opens the content of a misc file item.
	OpenContentStream(item Item) (io.ReadCloser, error)

	// File returns the path of the item's content (file or directory).
	File(item Item) (string, error)
}

// Layout directory names shared by patch content and backups.
const (
	MiscDir    = "misc"
	ModulesDir = "modules"
	BundlesDir = "bundles"
)

// ModulePath returns the directory of a module or bundle below root,
// e.g. org.foo/main maps to root/org/foo/main.
func ModulePath(root, name, slot string) string {
	parts := append([]string{root}, strings.Split(name, ".")...)
	parts = append(parts, slotOrDefault(slot))
	return filepath.Join(parts...)
}

// MiscPath returns the location of a misc item below root.
func MiscPath(root string, item Item) string {
	parts := append([]string{root}, item.Path...)
	parts = append(parts, item.Name)
	return filepath.Join(parts...)
}

// DirLoader loads content from a directory laid out as misc/, modules/ and bundles/.
// Patch content and transaction backups both use this layout.
type DirLoader struct {
	root string
}

// NewDirLoader creates a DirLoader rooted at root.
func NewDirLoader(root string) *DirLoader {
	return &DirLoader{root: root}
}

// Root returns the loader root directory.
func (l *DirLoader) Root() string {
	return l.root
}

// OpenContentStream opens the content of a misc file item.
func (l *DirLoader) OpenContentStream(item Item) (io.ReadCloser, error) {
	path, err := l.File(item)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open content for %s: %w", item, err)
	}
	return f, nil
}

// File returns the path of the item's content.
func (l *DirLoader) File(item Item) (string, error) {
	switch item.Type {
	case TypeMisc:
		return MiscPath(filepath.Join(l.root, MiscDir), item), nil
	case TypeModule:
		return ModulePath(filepath.Join(l.root, ModulesDir), item.Name, item.Slot), nil
	case TypeBundle:
		return ModulePath(filepath.Join(l.root, BundlesDir), item.Name, item.Slot), nil
	default:
		return "", fmt.Errorf("unknown content type %q", item.Type)
	}
}
