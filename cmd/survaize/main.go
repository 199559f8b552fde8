package main

import (
	"fmt"
	"os"

	"github.com/survaize/survaize-client/cmd/survaize/commands"
)

var version = "0.1.0"

func main() {
	commands.Version = version
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
