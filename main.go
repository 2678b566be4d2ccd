package main

import (
	"os"

	"github.com/spigell/jobai/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
