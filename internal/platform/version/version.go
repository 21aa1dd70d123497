package version

import "runtime"

// Build information, injected via ldflags at build time
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is served by the ops endpoint /version and logged at startup.
type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

const serviceName = "moodpulse"

func Get() Info {
	return Info{
		Service:   serviceName,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// LogAttrs flattens Info into slog key/value pairs.
func (i Info) LogAttrs() []any {
	return []any{"version", i.Version, "commit", i.Commit, "build_time", i.BuildTime, "go_version", i.GoVersion}
}
