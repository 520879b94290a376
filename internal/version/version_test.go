package version

import (
	"strings"
	"testing"
)

func overrideBuildVars(t *testing.T, version, commit, date string) {
	t.Helper()
	origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
	})
	Version, Commit, BuildDate = version, commit, date
}

func TestGetDefaults(t *testing.T) {
	overrideBuildVars(t, "", "", "")

	info := Get()
	if info.Version != "dev" || info.Commit != "dev" || info.BuildDate != "dev" {
		t.Fatalf("expected dev defaults, got %+v", info)
	}
	if UserAgent() != "malaysia-prayer-time-mcp/dev" {
		t.Fatalf("unexpected user agent %q", UserAgent())
	}
}

func TestGetUsesOverrides(t *testing.T) {
	overrideBuildVars(t, "v0.3.1", "abc123", "2025-12-18")

	info := Get()
	if info.Version != "v0.3.1" || info.Commit != "abc123" || info.BuildDate != "2025-12-18" {
		t.Fatalf("unexpected overrides: %+v", info)
	}
	if s := info.String(); !strings.HasPrefix(s, "malaysia-prayer-time-mcp v0.3.1 (commit abc123, built 2025-12-18") {
		t.Fatalf("unexpected string %q", s)
	}
}
