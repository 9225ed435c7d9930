package main

import (
	"os"

	"github.com/dexgate-labs/dexgate/internal/app"
)

func main() {
	runner := app.NewRunner()
	os.Exit(runner.Run(os.Args[1:]))
}
