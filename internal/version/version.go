// Package version provides build-time version information.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time with -ldflags "-X maponyms/internal/version.Version=..."
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String returns the version, commit and build time on one line. The
// commit falls back to the VCS revision recorded by the Go toolchain.
func String() string {
	commit := GitCommit
	if commit == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					commit = s.Value[:7]
				}
			}
		}
	}
	return fmt.Sprintf("%s-%s (built %s)", Version, commit, BuildTime)
}
