package main

import (
	"log"

	"tractor.dev/toolkit-go/engine"
	"tractor.dev/toolkit-go/engine/cli"
)

func main() {
	engine.Run(Main{})
}

type Main struct{}

func (m *Main) InitializeCLI(root *cli.Command) {
	root.Usage = "strata"
	root.AddCommand(catCmd())
	root.AddCommand(writeCmd())
	root.AddCommand(existsCmd())
	root.AddCommand(sizeCmd())
	root.AddCommand(serveCmd())
}

func fatal(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
