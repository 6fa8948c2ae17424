// Package version holds the build stamp. The variables are overridden
// at build time via -ldflags "-X .../internal/version.Version=...".
package version

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
