// Command keychord validates chord catalogs and runs, records and replays
// scan-cycle scenarios against the chord engine.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/keychord/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
