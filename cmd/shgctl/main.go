// Command shgctl is the SHG Insights command-line client.
package main

import (
	"os"

	"github.com/turtacn/SHG-Insights/internal/interfaces/cli"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	// Execute prints the error itself.
	os.Exit(errors.ExitCode(cli.Execute()))
}
