package main

import (
	"os"

	"github.com/magicfill/magicfill/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
