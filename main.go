package main

import (
	"os"

	"github.com/gitmate/gitmate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
