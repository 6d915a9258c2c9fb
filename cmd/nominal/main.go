package main

import (
	"os"

	"nominal/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
