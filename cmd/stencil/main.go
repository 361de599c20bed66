package main

import (
	"os"

	"github.com/tormodhaugland/stencil/cmd/stencil/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
