// Package version holds build-time version metadata, set via -ldflags the
// way the teacher's build does.
package version

import "fmt"

var (
	// Version is set at build time via -ldflags.
	Version = "dev"
	// CommitHash is the git commit hash, set at build time.
	CommitHash = "unknown"
	// BuildDate is the build date, set at build time.
	BuildDate = "unknown"
)

// String returns the full version string.
func String() string {
	return fmt.Sprintf("debate-engine version: %s (commit: %s, built: %s)", Version, CommitHash, BuildDate)
}
