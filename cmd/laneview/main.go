package main

import (
	"os"

	"github.com/moolen/laneview/cmd/laneview/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
