// Command mine manages items in an embedded SQLite database.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mine/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
