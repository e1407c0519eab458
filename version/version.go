package version

import (
	"runtime/debug"
	"strings"
	"sync"
)

// Set at build time using -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
)

// Info is the build identity of the running framework.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	IsDirty   bool   `json:"is_dirty,omitempty"`
}

var (
	buildOnce sync.Once
	buildInfo Info
)

// readBuild loads the vcs settings embedded by the go tool, once per process.
func readBuild() Info {
	buildOnce.Do(func() {
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		buildInfo.GoVersion = bi.GoVersion
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			buildInfo.Version = strings.TrimPrefix(v, "v")
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				buildInfo.GitCommit = s.Value
			case "vcs.modified":
				buildInfo.IsDirty = s.Value == "true"
			}
		}
	})
	return buildInfo
}

// Get returns the framework build info. Values set via -ldflags win over
// embedded build info.
func Get() Info {
	info := readBuild()
	if Version != "dev" || info.Version == "" {
		info.Version = Version
	}
	if GitCommit != "" {
		info.GitCommit = GitCommit
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// String returns the short form written into metadata, e.g. "1.4.0-abc1234".
func String() string {
	info := Get()
	s := info.Version
	if info.GitCommit != "" {
		s += "-" + info.GitCommit
	}
	if info.IsDirty {
		s += "-dirty"
	}
	return s
}
