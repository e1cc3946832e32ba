package main

import (
	"os"

	"github.com/gridsync/gridsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
