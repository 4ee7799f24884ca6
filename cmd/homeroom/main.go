package main

import (
	"os"

	"github.com/homeroomhq/homeroom/cmd/homeroom/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
