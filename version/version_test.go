package version

import (
	"strings"
	"testing"
	"time"
)

func saveAndRestore() func() {
	origVersion, origCommit, origBuildTime := Version, GitCommit, BuildTime
	return func() {
		Version = origVersion
		GitCommit = origCommit
		BuildTime = origBuildTime
	}
}

func TestGet_LinkTimeValues(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.2.0"
	GitCommit = "abc1234def"
	BuildTime = "2026-01-15T10:30:00Z"

	info := Get()
	if info.Version != "1.2.0" {
		t.Errorf("expected version 1.2.0, got %q", info.Version)
	}
	if info.GitCommit != "abc1234def" {
		t.Errorf("link-time commit should win, got %q", info.GitCommit)
	}
	if !info.BuildDate.Equal(time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected build date %v", info.BuildDate)
	}
}

func TestGet_BadBuildTime(t *testing.T) {
	defer saveAndRestore()()
	BuildTime = "yesterday"
	GitCommit = ""
	// Falls back to the VCS stamp, which test binaries usually lack.
	_ = Get()
}

func TestInfo_Short(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"dev", Info{Version: "dev"}, "dev"},
		{"commit truncated", Info{Version: "1.0.0", GitCommit: "abcdef123456"}, "1.0.0-abcdef1"},
		{"short commit", Info{Version: "1.0.0", GitCommit: "abc"}, "1.0.0-abc"},
		{"dirty", Info{Version: "1.0.0", GitCommit: "abcdef1", Dirty: true}, "1.0.0-abcdef1-dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Short(); got != tt.want {
				t.Errorf("Short() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfo_IsRelease(t *testing.T) {
	tests := []struct {
		info Info
		want bool
	}{
		{Info{Version: "dev"}, false},
		{Info{Version: "1.0.0"}, true},
		{Info{Version: "1.0.0", Dirty: true}, false},
	}
	for _, tt := range tests {
		if got := tt.info.IsRelease(); got != tt.want {
			t.Errorf("%+v.IsRelease() = %v, want %v", tt.info, got, tt.want)
		}
	}
}

func TestInfo_String(t *testing.T) {
	info := Info{
		Version:   "1.0.0",
		GitCommit: "abcdef1",
		GoVersion: "go1.26.0",
		BuildDate: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	s := info.String()
	for _, want := range []string{"1.0.0-abcdef1", "go1.26.0", "built 2026-03-01T12:00:00Z"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %q", want, s)
		}
	}
	if (Info{Version: "dev"}).String() != "dev" {
		t.Error("bare version should render alone")
	}
}
