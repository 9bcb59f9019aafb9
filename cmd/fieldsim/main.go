// Package main is the fieldsim command itself.
package main

import (
	"log"
	"os"

	"github.com/decbot-sim/fieldsim/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
