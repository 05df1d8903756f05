// Package main is the entry point for the pogopipe CLI.
// The CLI is the developer terminal tool for interacting with the pogopipe API.
package main

import (
	"os"

	"pogopipe/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
