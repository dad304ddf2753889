// Command strata is the entry point for Strata's command-line interface.
package main

import (
	"fmt"
	"os"

	"github.com/stratadb/strata/internal/cli"
)

func main() {
	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "strata:", err)
		os.Exit(1)
	}
}
