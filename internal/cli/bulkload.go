package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/araxia/sparqld/internal/config"
	"github.com/araxia/sparqld/internal/graphstore"
	"github.com/araxia/sparqld/internal/graphstore/ingest"
)

// BulkLoadOptions holds the flags for the bulk-load command.
type BulkLoadOptions struct {
	*RootOptions
	DataDir  string
	Input    string
	TypeAttr string
	DumpDict bool
}

// NewBulkLoadCommand creates the bulk-load command: an optional,
// out-of-band hook for loading shard data ahead of a query, fed by
// internal/graphstore/ingest.
func NewBulkLoadCommand(root *RootOptions) *cobra.Command {
	opts := &BulkLoadOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "bulk-load",
		Short: "Load an N-Triples-shaped file into the cluster's shards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulkLoad(opts)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "sparqld-data", "root directory for per-node badger shards (must match serve --data-dir)")
	cmd.Flags().StringVar(&opts.Input, "input", "", "path to the N-Triples-shaped input file (required)")
	cmd.Flags().StringVar(&opts.TypeAttr, "type-attr", "rdf:type", "predicate IRI routed to the local type index")
	cmd.Flags().BoolVar(&opts.DumpDict, "dump-dict", false, "print every interned term and its assigned id to stdout")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runBulkLoad(opts *BulkLoadOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("sparqld: %w", err)
	}

	f, err := os.Open(opts.Input)
	if err != nil {
		return fmt.Errorf("sparqld: open %s: %w", opts.Input, err)
	}
	defer f.Close()

	dict := ingest.NewDictionary(ingest.NextDictionaryID)
	loader := ingest.NewLoader(dict, cfg.NumServers, opts.TypeAttr)

	n, err := loader.LoadReader(f)
	if err != nil {
		return fmt.Errorf("sparqld: %w", err)
	}

	shards, err := openNodeShards(cfg, opts.DataDir)
	if err != nil {
		return err
	}
	defer closeShards(shards)

	if err := loader.Flush(shards); err != nil {
		return fmt.Errorf("sparqld: %w", err)
	}

	fmt.Fprintf(os.Stderr, "sparqld: loaded %d triples across %d shard(s)\n", n, cfg.NumServers)

	if opts.DumpDict {
		dumpDictionary(os.Stdout, dict)
	}
	return nil
}

func openNodeShards(cfg config.Cluster, dataDir string) ([]graphstore.Shard, error) {
	shards := make([]graphstore.Shard, cfg.NumServers)
	for i := range shards {
		path := nodeShardPath(dataDir, i)
		shard, err := graphstore.OpenBadgerShard(path)
		if err != nil {
			closeShards(shards[:i])
			return nil, fmt.Errorf("sparqld: open shard %d: %w", i, err)
		}
		shards[i] = shard
	}
	return shards, nil
}

func closeShards(shards []graphstore.Shard) {
	for _, s := range shards {
		if s != nil {
			_ = s.Close()
		}
	}
}

func nodeShardPath(dataDir string, sid int) string {
	return filepath.Join(dataDir, fmt.Sprintf("node-%d", sid))
}

func dumpDictionary(w *os.File, dict *ingest.Dictionary) {
	for id := ingest.NextDictionaryID; id < ingest.NextDictionaryID+int64(dict.Len()); id++ {
		term, ok := dict.Term(id, ingest.NextDictionaryID)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\n", term, id)
	}
}
