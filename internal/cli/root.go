// Package cli implements the sparqld command tree: serve, bulk-load and
// query, grounded on roach88-nysm's cobra command layout (RootOptions
// threaded through every New<Name>Command constructor).
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand builds the sparqld command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sparqld",
		Short: "sparqld - distributed SPARQL graph query engine",
		Long:  "sparqld runs the distributed query execution core against a partitioned RDF graph store.",
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "cluster.toml", "cluster configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "print execution annotations")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewBulkLoadCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))

	return cmd
}
