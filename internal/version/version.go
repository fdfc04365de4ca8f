package version

import (
	"fmt"
	"runtime/debug"
)

// Set via -ldflags at build time. Unset values are filled from the build
// info embedded by the Go toolchain when available.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

type Info struct {
	Version   string
	Commit    string
	BuildTime string
	Modified  bool
}

// Get returns the effective build metadata.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, BuildTime: BuildTime}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromBuildInfo(&info, bi)
	}
	return info
}

func fillFromBuildInfo(info *Info, bi *debug.BuildInfo) {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

func String() string {
	info := Get()
	commit := info.Commit
	if info.Modified {
		commit += " (modified)"
	}
	return fmt.Sprintf("larkbot version %s\n  Commit: %s\n  Built:  %s", info.Version, commit, info.BuildTime)
}
