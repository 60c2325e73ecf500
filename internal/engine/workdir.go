package engine

import (
	"fmt"
	"os"

	"github.com/danieljhkim/patchkit/internal/fsops"
)

// workDir is a scratch directory owned by one engine operation.
type workDir struct {
	path string
	fs   fsops.FS
}

// newWorkDir creates a fresh working directory below the downloads directory.
// The caller must Close it on every exit path.
func (e *Engine) newWorkDir(prefix string) (*workDir, error) {
	root := e.configPaths.Downloads
	if root == "" {
		root = os.TempDir()
	}
	if err := e.fs.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work root: %w", err)
	}
	path, err := os.MkdirTemp(root, prefix+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	return &workDir{path: path, fs: e.fs}, nil
}

// Path returns the directory path.
func (w *workDir) Path() string {
	return w.path
}

// Close removes the directory and everything unpacked into it.
func (w *workDir) Close() error {
	return w.fs.RemoveAll(w.path)
}
