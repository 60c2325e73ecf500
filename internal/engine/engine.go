// Package engine applies and rolls back patches.
//
// The engine is the orchestration layer between CLI commands and the
// lower level packages. For every operation it unpacks the patch source into
// a scoped working directory, merges the patch and its recorded history into
// content task definitions, opens an installation modification and runs the
// task pipeline inside it.
//
// Key components:
//   - Engine: main orchestrator called by the CLI
//   - Apply/Rollback: single patch operations returning a PatchingResult
//   - Bundles: sequential application with compensating rollback
//   - Policy: decides how content conflicts are resolved
package engine

import (
	"github.com/danieljhkim/patchkit/internal/config"
	"github.com/danieljhkim/patchkit/internal/fsops"
	"github.com/danieljhkim/patchkit/internal/hash"
	"github.com/danieljhkim/patchkit/internal/installation"
	"github.com/danieljhkim/patchkit/internal/log"
)

// Engine orchestrates all patchkit operations on one installation.
// It is the main API surface called by the CLI.
type Engine struct {
	manager     *installation.Manager
	fs          fsops.FS
	hasher      hash.Hasher
	logger      log.Logger
	configPaths config.Paths
}

// New creates a new Engine with the given dependencies.
func New(
	manager *installation.Manager,
	hasher hash.Hasher,
	logger log.Logger,
	paths config.Paths,
) *Engine {
	return &Engine{
		manager:     manager,
		fs:          manager.FS(),
		hasher:      hasher,
		logger:      logger,
		configPaths: paths,
	}
}

// Manager returns the installation manager the engine operates on.
func (e *Engine) Manager() *installation.Manager {
	return e.manager
}
