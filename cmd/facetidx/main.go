// Command facetidx imports facet values into an index snapshot, rebuilds
// its facet levels and inspects the result.
package main

import (
	"os"

	"github.com/hupe1980/facetidx/cmd/facetidx/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
