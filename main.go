package main

import (
	"os"

	"github.com/eclipseagency/jobly/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
