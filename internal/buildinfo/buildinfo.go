// Package buildinfo holds the process identity reported to MCP servers and
// telemetry backends. Version and Commit are stamped via -ldflags.
package buildinfo

import (
	"fmt"
	"os"
	"runtime/debug"
)

// Origin is the default client name announced during the MCP handshake.
const Origin = "mcpbridge"

// OriginEnv overrides the announced client name when set.
const OriginEnv = "MCPBRIDGE_ORIGINATOR"

// These variables are set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// ResolvedVersion returns Version, falling back to the module version
// recorded by the Go toolchain when Version was not stamped.
func ResolvedVersion() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}

// ResolvedOrigin returns the client name: the value of [OriginEnv] if set,
// otherwise fallback, otherwise [Origin].
func ResolvedOrigin(fallback string) string {
	if v := os.Getenv(OriginEnv); v != "" {
		return v
	}
	if fallback != "" {
		return fallback
	}
	return Origin
}

// String returns a one-line summary for logging.
func String() string {
	return fmt.Sprintf("mcpbridge %s (%s)", ResolvedVersion(), Commit)
}
