// Package main provides the supermatrix command-line tool.
package main

import (
	"os"

	"github.com/phylokit/supermatrix/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
