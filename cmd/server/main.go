package main

import (
	"log"

	"fracturelab/server/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}
