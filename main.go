package main

import (
	"os"

	"github.com/uvieugono/lesson-platform-clean/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
