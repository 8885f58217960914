package main

import (
	"os"

	"github.com/marcelocantos/stsh/internal/cli"
	"github.com/marcelocantos/stsh/internal/pipeline"
)

var version = "dev"

func main() {
	// Must run first: when re-run as a command's trampoline, this process
	// execs the command and never returns.
	pipeline.HandleChild()

	os.Exit(cli.Execute(version, os.Args[1:]))
}
