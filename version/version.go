// Package version reports which build of the service is running.
package version

import (
	"runtime"
	"runtime/debug"
)

// Service is the name reported by the /version endpoint.
const Service = "safe-xcx"

// Info describes the running build.
type Info struct {
	Service   string `json:"service"`
	Revision  string `json:"revision,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
}

// Get reads the VCS metadata the Go toolchain stamps into the binary.
// Outside a VCS checkout only the service name and Go version are set.
func Get() Info {
	info := Info{
		Service:   Service,
		GoVersion: runtime.Version(),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.time":
			info.BuildTime = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}
