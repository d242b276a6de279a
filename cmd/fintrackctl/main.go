package main

import (
	"os"

	"fintrack/cmd/fintrackctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
