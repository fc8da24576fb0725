// Package version reports the chainkit build version. Version and Commit
// are set at build time:
//
//	go build -ldflags "-X github.com/kbukum/chainkit/version.Version=1.2.0"
package version

import (
	"runtime/debug"
)

var (
	// Version is the release version, "dev" for local builds.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = ""
)

// Info represents version information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty"`
}

// Get returns version information, filling gaps from the embedded build info.
func Get() Info {
	info := Info{Version: Version, Commit: Commit}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = setting.Value
			}
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	if len(info.Commit) > 12 {
		info.Commit = info.Commit[:12]
	}
	return info
}

// Short returns "version" or "version-commit".
func Short() string {
	info := Get()
	if info.Commit == "" {
		return info.Version
	}
	s := info.Version + "-" + info.Commit
	if info.Dirty {
		s += "-dirty"
	}
	return s
}
