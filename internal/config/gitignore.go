package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const gitignoreHeader = `# pubscope project-local data (auto-generated)
# config.yaml is tracked; caches and logs are not.
`

// defaultIgnores are always written, relative to the project .pubscope/ directory.
var defaultIgnores = []string{"cache/", "*.log", ".env"} //nolint:gochecknoglobals // Read-only list.

// GitignoreEntries lists the patterns ignored in the project directory dir. Besides the
// defaults it adds cfg's cache directory and log file when they live under dir.
func GitignoreEntries(dir string, cfg *Config) []string {
	entries := slices.Clone(defaultIgnores)
	if cfg == nil {
		return entries
	}
	add := func(p string) {
		if p != "" && !slices.Contains(entries, p) {
			entries = append(entries, p)
		}
	}
	if rel, ok := relativeTo(dir, cfg.Cache.Directory); ok {
		add(rel + "/")
	}
	if rel, ok := relativeTo(dir, cfg.Logging.File); ok {
		add(rel)
	}
	return entries
}

// relativeTo returns p as a slash-separated path below dir.
func relativeTo(dir, p string) (string, bool) {
	if p == "" || !filepath.IsAbs(p) {
		return "", false
	}
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// GitignoreContent renders the .gitignore written by EnsureGitignore.
func GitignoreContent(dir string, cfg *Config) string {
	return gitignoreHeader + strings.Join(GitignoreEntries(dir, cfg), "\n") + "\n"
}

// EnsureGitignore writes dir/.gitignore unless one exists, creating dir if needed. It
// reports whether a file was written; an existing file is never touched.
func EnsureGitignore(dir string, cfg *Config) (bool, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return false, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, ".gitignore")
	//nolint:gosec // .gitignore must be world-readable (0644).
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("creating .gitignore at %s: %w", path, err)
	}

	_, writeErr := f.WriteString(GitignoreContent(dir, cfg))
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return false, fmt.Errorf("writing .gitignore at %s: %w", path, writeErr)
	}
	return true, nil
}
