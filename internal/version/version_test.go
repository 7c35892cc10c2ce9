package version

import (
	"runtime/debug"
	"testing"
	"time"
)

func TestCurrentPrefersBuildVersion(t *testing.T) {
	old := buildVersion
	buildVersion = "v1.2.3+dirty"
	t.Cleanup(func() { buildVersion = old })

	if got := Current(); got != "v1.2.3" {
		t.Fatalf("expected build version without dirty suffix, got %q", got)
	}
}

func TestVCSPseudoVersion(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	info := &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "1234567890abcdef"},
			{Key: "vcs.time", Value: ts.Format(time.RFC3339)},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	if got, want := vcsPseudoVersion(info), "v0.0.0-20250102030405-1234567890ab"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := vcsPseudoVersion(&debug.BuildInfo{}); got != "" {
		t.Fatalf("expected empty version for a missing stamp, got %q", got)
	}
}
