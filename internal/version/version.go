package version

import (
	"fmt"
	"runtime"
)

// Name identifies the server to MCP clients and the upstream API.
const Name = "malaysia-prayer-time-mcp"

// Build-time variables. Override via -ldflags.
var (
	Version   = "dev"
	Commit    = "dev"
	BuildDate = "dev"
)

// Info describes build/version metadata.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// Get returns version info, defaulting empty fields to "dev".
func Get() Info {
	return Info{
		Version:   defaultOr(Version, "dev"),
		Commit:    defaultOr(Commit, "dev"),
		BuildDate: defaultOr(BuildDate, "dev"),
		GoVersion: runtime.Version(),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", Name, i.Version, i.Commit, i.BuildDate, i.GoVersion)
}

// UserAgent is sent with every upstream request.
func UserAgent() string {
	return Name + "/" + Get().Version
}

func defaultOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
