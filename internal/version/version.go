// Package version reports the pantti build.
//
// Release builds stamp both values with ldflags:
//
//	go build -ldflags="-X github.com/muurk/pantti/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/pantti/internal/version.Commit=abc1234"
//
// Unstamped builds fall back to the VCS data recorded by the Go toolchain.
package version

import (
	"runtime/debug"
	"time"
)

var (
	Version = ""
	Commit  = ""
)

func init() {
	info, _ := debug.ReadBuildInfo()
	Version, Commit = resolve(Version, Commit, info, time.Now())
}

// resolve fills in whichever of version and commit is empty.
func resolve(version, commit string, info *debug.BuildInfo, now time.Time) (string, string) {
	var rev, when string
	dirty := false
	if info != nil {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				rev = s.Value
			case "vcs.time":
				when = s.Value
			case "vcs.modified":
				dirty = s.Value == "true"
			}
		}
	}

	if commit == "" && rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		commit = rev
		if dirty {
			commit += "-dirty"
		}
	}
	if commit == "" {
		commit = "unknown"
	}

	if version == "" {
		stamp := now
		if t, err := time.Parse(time.RFC3339, when); err == nil {
			stamp = t
		}
		version = "dev-" + stamp.Format("20060102")
	}
	return version, commit
}
