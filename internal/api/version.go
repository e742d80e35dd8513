package api

import "github.com/MJE43/arcs-odds/internal/scan"

// Version information - these will be set at build time via ldflags
var (
	EngineVersion = scan.EngineVersion
	GitCommit     = "unknown"
	BuildTime     = "unknown"
)

// GetVersionInfo returns the current version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		EngineVersion: EngineVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
	}
}
