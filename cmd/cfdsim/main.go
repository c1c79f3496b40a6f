package main

import (
	"os"

	"github.com/rustyeddy/cfdsim/cmd/cfdsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
