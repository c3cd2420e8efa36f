// Package version provides build-time version information.
// Version is set via ldflags at build time; APP_VERSION overrides it at runtime.
package version

import "os"

var (
	// Version is the semantic version (e.g., "1.0.0")
	Version = "dev"

	// Commit is the git commit SHA
	Commit = "none"
)

// Current returns APP_VERSION when set, otherwise the build version.
func Current() string {
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	return Version
}

// Full returns the full version string for display.
func Full() string {
	v := Current()
	if v == "dev" {
		return "youtrack-mcp version dev (built from source)"
	}
	return "youtrack-mcp version " + v
}

// UserAgent returns the user agent string for tracker requests.
func UserAgent() string {
	return "youtrack-mcp/" + Current()
}
