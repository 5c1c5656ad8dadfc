package main

import (
	"os"

	"github.com/cppla/keepsake/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
