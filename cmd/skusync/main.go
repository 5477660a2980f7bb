// Command skusync keeps a vector search index in sync with a product
// catalogue.
package main

import (
	"os"

	"github.com/flowmart-labs/skusync/internal/adapters/driving/cli"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
