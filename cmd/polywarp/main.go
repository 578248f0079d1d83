// Command polywarp fits polynomial warps to control points and resamples
// rasters through them. All functionality lives in internal/cli.
package main

import (
	"polywarp/internal/cli"
)

// Set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute(cli.NewRootCommand())
}
