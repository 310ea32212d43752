package main

import (
	"fmt"
	"os"

	"github.com/mcdonaldj/wheeledit/internal/cli"
	"github.com/mcdonaldj/wheeledit/internal/tui"
)

// version is set via ldflags at build time: -ldflags "-X main.version=x.y.z"
var version = "dev"

func main() {
	// Handle TUI mode (ui/tui command with a wheel path)
	if len(os.Args) > 1 && (os.Args[1] == "ui" || os.Args[1] == "tui") {
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: wheeledit ui <wheel>")
			os.Exit(1)
		}
		if err := tui.Run(os.Args[2]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Use CLI for all other commands
	c := cli.New(version)
	c.Run()
}
