package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rshade/pubscope/internal/logging"
)

// projectDirName is the project-local configuration directory.
const projectDirName = ".pubscope"

var (
	resolvedProjectDir   string       //nolint:gochecknoglobals // Set once at startup, read by config loaders
	resolvedProjectDirMu sync.RWMutex //nolint:gochecknoglobals // Protects resolvedProjectDir
)

// SetResolvedProjectDir stores the project directory used by Load.
func SetResolvedProjectDir(dir string) {
	resolvedProjectDirMu.Lock()
	defer resolvedProjectDirMu.Unlock()
	resolvedProjectDir = dir
}

// GetResolvedProjectDir returns the stored project directory.
func GetResolvedProjectDir() string {
	resolvedProjectDirMu.RLock()
	defer resolvedProjectDirMu.RUnlock()
	return resolvedProjectDir
}

// ResolveProjectDir finds the project-local .pubscope directory. It checks flagValue,
// then $PUBSCOPE_PROJECT_DIR, then walks up from startDir looking for an existing
// .pubscope directory that is not the global one. Returns "" when none is found.
func ResolveProjectDir(ctx context.Context, flagValue, startDir string) string {
	if flagValue != "" {
		return toAbsProjectDir(ctx, flagValue)
	}
	if envDir := os.Getenv("PUBSCOPE_PROJECT_DIR"); envDir != "" {
		return toAbsProjectDir(ctx, envDir)
	}

	global, _ := GetConfigDir()
	dir := toAbsProjectDir(ctx, startDir)
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() && dir != global {
			return dir
		}
		parent := filepath.Dir(filepath.Dir(dir))
		if parent == filepath.Dir(dir) {
			return ""
		}
		dir = filepath.Join(parent, projectDirName)
	}
}

// toAbsProjectDir converts dir to an absolute path ending in .pubscope.
func toAbsProjectDir(ctx context.Context, dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().
			Str("component", "config").
			Err(err).
			Str("dir", dir).
			Msg("failed to resolve absolute path for project directory")
		abs = dir
	}

	if filepath.Base(abs) == projectDirName {
		return abs
	}
	return filepath.Join(abs, projectDirName)
}
