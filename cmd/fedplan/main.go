// Command fedplan compiles federated query documents into connector
// execution plans.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/fedplan/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
