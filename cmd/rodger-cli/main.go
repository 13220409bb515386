package main

import (
	"os"
	_ "time/tzdata"

	"rodger/cmd/rodger-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
