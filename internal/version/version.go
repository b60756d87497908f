// Package version carries build identification stamped in by the linker.
package version

var (
	// Version is the tripstats release version.
	Version = "dev"
	// GitSHA is the git commit SHA of the build.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
