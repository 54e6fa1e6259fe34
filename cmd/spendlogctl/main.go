// Package main is the entrypoint for the spendlogctl administration tool.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spendlog/spendlog/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
