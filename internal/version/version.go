// Package version exposes build metadata, populated via -ldflags at build time.
package version

import "runtime"

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Info holds the build metadata served at /version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the build information for this binary.
func Get() Info {
	return Info{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}
