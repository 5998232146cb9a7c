package version

import (
	"crypto/sha256"
	"fmt"
	"runtime/debug"
	"sync"
)

// Release stamps. Commit and BuildDate are overridden with -ldflags -X.
var (
	Version   = "0.1.0"
	BuildDate = "development"
	GitCommit = "unknown"
)

// String is the --version line printed by the CLI.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit(), BuildDate)
}

// Commit prefers the ldflags stamp and falls back to the VCS revision
// recorded by the Go toolchain, shortened to 12 characters.
func Commit() string {
	if GitCommit != "unknown" && GitCommit != "" {
		return GitCommit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return GitCommit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return GitCommit
}

var (
	buildID     string
	buildIDOnce sync.Once
)

// BuildID identifies the running binary in the stats tool, so a client
// can tell that a matcher was restarted with a different build.
func BuildID() string {
	buildIDOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			buildID = Version + "-" + GitCommit
			return
		}
		buildID = fingerprint(info)
	})
	return buildID
}

func fingerprint(info *debug.BuildInfo) string {
	h := sha256.New()
	fmt.Fprint(h, Version, info.GoVersion, info.Main.Path, info.Main.Version)
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision", "vcs.modified", "vcs.time", "-ldflags":
			fmt.Fprint(h, s.Key, "=", s.Value)
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
