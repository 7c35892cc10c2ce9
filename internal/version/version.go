// Package version resolves the binary's version from build metadata.
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const defaultModule = "pkt.systems/termview"

// buildVersion is set via -ldflags "-X pkt.systems/termview/internal/version.buildVersion=...".
var buildVersion = ""

// Module returns the module path recorded in the build info.
func Module() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			return path
		}
	}
	return defaultModule
}

// Current returns the best available version string: the linker-injected
// version, the module version of a released build, or a pseudo-version
// derived from the VCS stamp.
func Current() string {
	if v := strings.TrimSpace(buildVersion); v != "" {
		return strings.TrimSuffix(v, "+dirty")
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			return strings.TrimSuffix(v, "+dirty")
		}
		if v := vcsPseudoVersion(info); v != "" {
			return v
		}
	}
	return "v0.0.0-unknown"
}

// vcsPseudoVersion builds a v0.0.0 pseudo-version from the vcs.revision
// and vcs.time build settings, or "" when the stamp is incomplete.
func vcsPseudoVersion(info *debug.BuildInfo) string {
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	revision := settings["vcs.revision"]
	stamp, err := time.Parse(time.RFC3339, settings["vcs.time"])
	if revision == "" || err != nil {
		return ""
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	return "v0.0.0-" + stamp.UTC().Format("20060102150405") + "-" + revision
}
