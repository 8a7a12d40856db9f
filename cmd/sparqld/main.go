// Command sparqld runs the distributed SPARQL query execution core.
package main

import (
	"log"

	"github.com/araxia/sparqld/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		log.Fatalf("sparqld: %v", err)
	}
}
