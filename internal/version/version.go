// Package version holds build metadata, overridden at link time via
// -ldflags "-X menubard/internal/version.Version=...".
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)
