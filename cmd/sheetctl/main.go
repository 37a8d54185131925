// Command sheetctl drives an internal/engine.Sheet from the command line,
// per SPEC_FULL.md §10's ambient CLI surface, grounded on roach88-nysm's
// cmd entry point pattern: a bare main that hands off to internal/cli
// immediately.
package main

import (
	"fmt"
	"os"

	"github.com/vogtb/sheetcore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
