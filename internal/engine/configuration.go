package engine

import (
	"fmt"
	"path/filepath"
)

// ConfigurationDir is the directory name configuration backups are kept under.
const ConfigurationDir = "configuration"

// backupConfiguration copies the configuration directories of the
// installation below dst. It reports whether anything was copied.
func (e *Engine) backupConfiguration(dst string) (bool, error) {
	home := e.manager.Home()
	copied := false
	for _, dir := range e.manager.ConfigurationDirs() {
		if err := e.fs.ValidateRelPath(dir); err != nil {
			return false, fmt.Errorf("invalid configuration directory: %w", err)
		}
		src := filepath.Join(home, dir)
		exists, err := e.fs.Exists(src)
		if err != nil {
			return false, err
		}
		if !exists {
			continue
		}
		if err := e.fs.Copy(src, filepath.Join(dst, dir)); err != nil {
			return false, fmt.Errorf("failed to back up %s: %w", dir, err)
		}
		copied = true
	}
	return copied, nil
}

// restoreConfiguration replaces the configuration directories of the
// installation with the ones backed up below src.
func (e *Engine) restoreConfiguration(src string) error {
	home := e.manager.Home()
	for _, dir := range e.manager.ConfigurationDirs() {
		backup := filepath.Join(src, dir)
		exists, err := e.fs.Exists(backup)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		target := filepath.Join(home, dir)
		if err := e.fs.RemoveAll(target); err != nil {
			return fmt.Errorf("failed to clear %s: %w", dir, err)
		}
		if err := e.fs.Copy(backup, target); err != nil {
			return fmt.Errorf("failed to restore %s: %w", dir, err)
		}
	}
	return nil
}
