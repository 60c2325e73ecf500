// Package config manages patchkit configuration and filesystem paths.
//
// Configuration includes the location of the patchkit data directory and the
// optional config.yaml inside it, which names the default installation home,
// the log level, the configuration directories backed up with every patch and
// the default content verification policy. The default root is ~/.patchkit/.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables that override configured values.
const (
	EnvRoot     = "PATCHKIT_ROOT"
	EnvHome     = "PATCHKIT_HOME"
	EnvLogLevel = "PATCHKIT_LOG_LEVEL"
)

// Paths contains the filesystem paths used by patchkit itself.
type Paths struct {
	// Root is the base directory for patchkit data (default: ~/.patchkit)
	Root string

	// Config is the path to the global config file
	Config string

	// Downloads is where patches fetched from URLs are staged
	Downloads string
}

// DefaultPaths returns the default paths for patchkit.
// Paths can be overridden with environment variables:
// - PATCHKIT_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv(EnvRoot)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".patchkit")
	}

	return &Paths{
		Root:      root,
		Config:    filepath.Join(root, "config.yaml"),
		Downloads: filepath.Join(root, "downloads"),
	}, nil
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.Root, p.Downloads} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
