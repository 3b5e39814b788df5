package main

import (
	"os"

	"llamadeck/internal/cli"
)

func main() {
	err := cli.Execute()
	if err != nil {
		os.Stderr.WriteString("llamadeck: " + err.Error() + "\n")
	}
	os.Exit(cli.ExitCode(err))
}
