// Package version reports the pubscope build version.
package version

import "runtime/debug"

// Set by -ldflags "-X github.com/rshade/pubscope/pkg/version.version=..." at release time.
var (
	version   = "" //nolint:gochecknoglobals // Injected at build time
	gitCommit = "" //nolint:gochecknoglobals // Injected at build time
	buildDate = "" //nolint:gochecknoglobals // Injected at build time
)

const devVersion = "0.0.0-dev"

// GetVersion returns the injected version, the module version from build info, or a
// development placeholder. It never returns "".
func GetVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return devVersion
}

// GetGitCommit returns the injected commit hash, if any.
func GetGitCommit() string { return gitCommit }

// GetBuildDate returns the injected build date, if any.
func GetBuildDate() string { return buildDate }

// Full returns the version with commit and date when known.
func Full() string {
	s := GetVersion()
	if gitCommit != "" {
		s += " (" + gitCommit
		if buildDate != "" {
			s += ", " + buildDate
		}
		s += ")"
	}
	return s
}
