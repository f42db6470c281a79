package main

import (
	"os"

	"github.com/example/vocabsrs/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
