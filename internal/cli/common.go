package cli

import (
	"encoding/json"
	"fmt"
	"os"

	apexlog "github.com/apex/log"

	"github.com/danieljhkim/patchkit/internal/config"
	"github.com/danieljhkim/patchkit/internal/engine"
	"github.com/danieljhkim/patchkit/internal/hash"
	"github.com/danieljhkim/patchkit/internal/installation"
	"github.com/danieljhkim/patchkit/internal/log"
)

// settings holds the resolved configuration of one command invocation.
type settings struct {
	paths  *config.Paths
	config *config.Config
	logger *apexlog.Logger
	home   string
}

// loadSettings reads config.yaml and resolves the installation home from the
// --home flag, the configuration or the current directory, in that order.
func loadSettings() (*settings, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := log.New(os.Stderr, level)
	if err != nil {
		return nil, err
	}

	home := homeFlag
	if home == "" {
		home = cfg.Home
	}
	if home == "" {
		if home, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	return &settings{paths: paths, config: cfg, logger: logger, home: home}, nil
}

// newManager creates the installation manager without loading its state.
func (s *settings) newManager() *installation.Manager {
	return installation.NewManager(s.home, installation.Options{
		Logger:            s.logger,
		ConfigurationDirs: s.config.ConfigurationDirs,
	})
}

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, *settings, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}

	mgr := s.newManager()
	if err := mgr.Load(); err != nil {
		return nil, nil, err
	}
	return engine.New(mgr, hash.NewSHA1Hasher(), s.logger, *s.paths), s, nil
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	initColors()
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	out, err := formatJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, out)
	return err
}
