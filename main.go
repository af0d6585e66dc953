package main

import (
	"os"

	"github.com/Chative-core-poc-v1/cookbook/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
