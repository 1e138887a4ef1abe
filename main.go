package main

import (
	"os"

	"github.com/abhisek/proofloop/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
