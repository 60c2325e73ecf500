package main

import (
	"os"

	"github.com/danieljhkim/patchkit/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)

	// Execute reports the error itself.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
