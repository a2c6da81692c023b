// Package misc keeps program identity: name, version and source revision.
package misc

import (
	"runtime/debug"
	"strings"
)

// Set at link time with -ldflags "-X richdoc/misc.version=...".
var (
	version = ""
	gitHash = ""
)

const appName = "richdoc"

func GetAppName() string {
	return appName
}

// GetVersion returns program version, falling back to module version
// recorded by the toolchain.
func GetVersion() string {
	if len(version) > 0 {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) > 0 {
		return strings.TrimPrefix(bi.Main.Version, "v")
	}
	return "dev"
}

// GetGitHash returns source revision program was built from.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
