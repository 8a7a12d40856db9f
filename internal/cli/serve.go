package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/araxia/sparqld/internal/annotations"
	"github.com/araxia/sparqld/internal/config"
)

// ServeOptions holds the flags for the serve command.
type ServeOptions struct {
	*RootOptions
	DataDir  string
	Simulate bool
}

// NewServeCommand creates the serve command: boots the engine cluster
// described by --config and blocks until interrupted.
func NewServeCommand(root *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start an engine/proxy cluster",
		Long: `Start the distributed query execution core described by the cluster
configuration file.

--simulate runs every node's engine and proxy workers in this single
process over an in-memory transport fabric. It is the only mode this
command runs: without --simulate, serve returns an error and starts
nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "sparqld-data", "root directory for per-node badger shards")
	cmd.Flags().BoolVar(&opts.Simulate, "simulate", false, "run every configured node in this one process")

	return cmd
}

func runServe(opts *ServeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("sparqld: %w", err)
	}

	var log *annotations.Collector
	if opts.Verbose {
		formatter := annotations.NewOutputFormatter(os.Stderr)
		log = annotations.NewCollector(formatter.Handle)
	}

	if !opts.Simulate {
		return fmt.Errorf("sparqld: non-simulated multi-process serve is not implemented by this CLI; run with --simulate, or wire internal/transport.TCPTransport directly for a real deployment")
	}

	sim, err := buildSimCluster(cfg, opts.DataDir, log)
	if err != nil {
		return fmt.Errorf("sparqld: %w", err)
	}
	defer sim.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sim.Start(ctx)
	fmt.Fprintf(os.Stderr, "sparqld: simulating %d node(s), %d engine(s) each, data dir %q\n", cfg.NumServers, cfg.NumEnginesPerServer, opts.DataDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	sim.Stop()
	return nil
}
