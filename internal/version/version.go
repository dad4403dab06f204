// Package version carries build metadata stamped into the ps-battler
// binary via -ldflags and served on the control API.
package version

// These variables are overridden at build time using -ldflags.
// Keep sensible defaults for local development.
var (
	Version = "dev"
	Commit  = "none"
	Date    = ""
	Dirty   = "false"
)

// String renders the version plus commit for startup logs.
func String() string {
	s := Version + " (" + Commit + ")"
	if Dirty == "true" {
		s += " dirty"
	}
	return s
}
