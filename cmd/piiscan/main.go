package main

import (
	"os"

	"github.com/dgallion1/docredact/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
