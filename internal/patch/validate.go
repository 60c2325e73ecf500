package patch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/patchkit/internal/fsops"
)

var paths = fsops.NewRealFS()

// validateIdentifier rejects ids that would not stay a single path element
// when used as a history or overlay directory name.
func validateIdentifier(kind, id string) error {
	if err := paths.ValidateIdentifier(id); err != nil {
		return fmt.Errorf("%w: %s %q: %v", ErrInvalidMetadata, kind, id, err)
	}
	return nil
}

// validateRelPath rejects misc paths that leave the installation home.
func validateRelPath(relPath string) error {
	slashed := strings.ReplaceAll(relPath, "\\", "/")
	if err := paths.ValidateRelPath(filepath.FromSlash(slashed)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return fmt.Errorf("%w: path traversal not allowed in %q", ErrInvalidMetadata, relPath)
		}
	}
	return nil
}

// validateModuleName rejects module and bundle names whose dot separated
// segments would not map to plain directories.
func validateModuleName(name string) error {
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: name %q must not contain path separators", ErrInvalidMetadata, name)
	}
	for _, segment := range strings.Split(name, ".") {
		if segment == "" {
			return fmt.Errorf("%w: name %q has an empty segment", ErrInvalidMetadata, name)
		}
	}
	return nil
}
