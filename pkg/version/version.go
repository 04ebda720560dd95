// Package version exposes build-time version information for the
// migration-agent binaries.
package version

// Values are overridden at build time via -ldflags.
var (
	// Version is the semantic version of the build.
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp in RFC 3339 format.
	Date = "unknown"
)
