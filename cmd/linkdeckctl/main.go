// Command linkdeckctl edits a linkdeck profile from the terminal.
package main

import (
	"os"

	"linkdeck/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
