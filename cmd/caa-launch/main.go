// caa-launch - launcher CLI for the Content AI Agent Streamlit app.
//
// Replaces the per-variant launch scripts with one parameterized tool:
// it starts the local Streamlit server detached, waits until the server
// accepts connections, and opens it in the configured browser.
package main

import (
	"os"

	"github.com/caa-tools/caa-launch/internal/cli"
	"github.com/caa-tools/caa-launch/internal/version"
)

func main() {
	// Propagate version from the single source of truth (internal/version).
	cli.Version = version.Version
	cli.BuildTime = version.BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
