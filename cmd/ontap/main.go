// Package main is the entry point for the ontap CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/ontap/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
