// Command scriptctl is the thin, optional operator-facing front door onto
// the Script Ingestion Pipeline's entry points (SPEC_FULL.md §6): parse a
// script, inspect column auto-detection, or apply a bundle to a sqlite
// project database.
package main

import (
	"os"

	"github.com/castingdb/scriptpipeline/cmd/scriptctl/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
