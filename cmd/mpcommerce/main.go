package main

import (
	"os"

	"github.com/adrikim-mp/mparticle-web-sdk/cmd/mpcommerce/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
