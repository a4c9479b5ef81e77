package main

import (
	"os"

	"github.com/pterm/pterm"

	"sales-dashboard/internal/cli"
)

var version = "1.0.0"

func main() {
	app := cli.NewCLIApp(version)
	if err := app.Execute(); err != nil {
		pterm.Error.Printfln("%v", err)
		os.Exit(1)
	}
}
