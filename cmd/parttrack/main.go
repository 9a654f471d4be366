// Command parttrack records part connection scans and rebuilds assembly
// chains from them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/parttrack/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
