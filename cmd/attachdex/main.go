package main

import (
	"os"

	"github.com/kailas-cloud/attachdex/cmd/attachdex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
