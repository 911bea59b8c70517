// Package main is the framecheck CLI entry point.
package main

import (
	"os"

	"github.com/typedframes/framecheck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
