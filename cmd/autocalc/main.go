package main

import (
	"os"

	"autocalc-bot/cmd/autocalc/cmd"
)

// ENTRY POINT

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
