package version

import (
	"runtime/debug"
	"testing"
)

func withBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func TestGet(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		bi        *debug.BuildInfo
		wantShort string
		wantStr   string
	}{
		{
			name:      "no build info",
			version:   "dev",
			wantShort: "dev",
			wantStr:   "dev",
		},
		{
			name:    "clean checkout",
			version: "v0.3.0",
			bi: &debug.BuildInfo{GoVersion: "go1.26.0", Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "4f2a9c1d0e8b"},
				{Key: "vcs.modified", Value: "false"},
			}},
			wantShort: "v0.3.0-4f2a9c1",
			wantStr:   "v0.3.0-4f2a9c1 (go1.26.0)",
		},
		{
			name:    "dirty tree",
			version: "dev",
			bi: &debug.BuildInfo{GoVersion: "go1.26.0", Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc"},
				{Key: "vcs.modified", Value: "true"},
			}},
			wantShort: "dev-abc-dirty",
			wantStr:   "dev-abc-dirty (go1.26.0)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := Version
			Version = tt.version
			t.Cleanup(func() { Version = orig })
			withBuildInfo(t, tt.bi)

			info := Get()
			if got := info.Short(); got != tt.wantShort {
				t.Errorf("Short() = %q, want %q", got, tt.wantShort)
			}
			if got := info.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}
