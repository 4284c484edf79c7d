// Package version reports this driver's build identity, which dsn.Parse
// uses as the default application_name when a connection string sets
// none, so a server administrator can tell pgnative connections apart in
// pg_stat_activity without the application setting one explicitly.
package version

import "runtime/debug"

// These vars are set at build time via:
//
//	go build -ldflags "-X pgnative/version.Tag=v1.0.0 -X pgnative/version.GitCommit=abc1234 -X pgnative/version.BuildTime=2026-02-26T00:00:00Z"
var (
	Tag       = "dev"
	GitCommit = "" // empty = auto-detect from build info
	BuildTime = "" // empty = auto-detect from build info
)

// String returns a human-readable driver identity string, e.g.
// "pgnative/dev (commit ab12cd34, built 2026-08-03T00:00:00Z)".
func String() string {
	commit, buildTime := GitCommit, BuildTime
	if commit == "" || buildTime == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					if commit == "" && len(s.Value) >= 8 {
						commit = s.Value[:8]
					}
				case "vcs.time":
					if buildTime == "" {
						buildTime = s.Value
					}
				}
			}
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if buildTime == "" {
		buildTime = "unknown"
	}
	return "pgnative/" + Tag + " (commit " + commit + ", built " + buildTime + ")"
}
