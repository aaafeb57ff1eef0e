// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/attachdex/internal/version.Version=v1.2.3
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the metadata as "attachdex <version> (commit <sha>, built <date>)".
func String() string {
	return "attachdex " + Version + " (commit " + Commit + ", built " + Date + ")"
}
