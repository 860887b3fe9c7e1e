package config

import "fmt"

// Build arguments are injected at compile time via ldflags.
var (
	ModuleNameBuildArg = "github.com/stablemail/go-relay"
	CommitBuildArg     = "unknown"
	BuildDateBuildArg  = "unknown"
)

// GetFormattedBuildArgs returns "<module> @ <commit> (<build date>)".
func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleNameBuildArg, CommitBuildArg, BuildDateBuildArg)
}
