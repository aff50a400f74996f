// Package buildinfo reports the version stamped into the rcos binary.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags. When unset, the VCS revision
// recorded by the Go toolchain is used.
var Commit = "unknown"

// Date is set at build time via -ldflags.
var Date = "unknown"

// Info is the resolved build metadata.
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

// Read resolves build metadata, falling back to the embedded VCS settings
// for fields not set by the linker.
func Read() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" || info.Commit == "unknown" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" || info.Date == "unknown" {
				info.Date = s.Value
			}
		}
	}
	return info
}

// Short returns a compact build identifier for logs.
func (i Info) Short() string {
	if i.Version != "" && i.Version != "dev" {
		return i.Version
	}
	if i.Commit != "" && i.Commit != "unknown" {
		if len(i.Commit) > 12 {
			return i.Commit[:12]
		}
		return i.Commit
	}
	return "dev"
}

func (i Info) String() string {
	return fmt.Sprintf("rcos %s (commit %s, built %s, %s)", i.Version, i.Commit, i.Date, i.GoVersion)
}
