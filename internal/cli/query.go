package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/araxia/sparqld/internal/annotations"
	"github.com/araxia/sparqld/internal/config"
	"github.com/araxia/sparqld/internal/idspace"
	"github.com/araxia/sparqld/internal/model"
	"github.com/araxia/sparqld/internal/proxy"
)

// QueryOptions holds the flags for the query command.
type QueryOptions struct {
	*RootOptions
	DataDir     string
	NodeSid     int
	Patterns    []string
	Orders      []string
	Distinct    bool
	Limit       int64
	Offset      int64
	Timeout     time.Duration
	MaxPrintRow int
}

// NewQueryCommand creates the query command: submits one pattern group
// to an ephemeral single-process cluster simulation over the shard data
// a prior bulk-load wrote, waits for the merged reply and renders it.
func NewQueryCommand(root *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a single pattern-group query and print the result",
		Long: `Run a single pattern-group query against the shard data a prior
bulk-load wrote, and print the result as a table.

Each --pattern is "subject:predicate:dir:object", all integer ids in the
engine's flat signed id space (negative ids are query-scoped variables,
non-negative ids are dictionary-assigned constants; see bulk-load
--dump-dict). dir is OUT or IN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "sparqld-data", "root directory for per-node badger shards (must match bulk-load --data-dir)")
	cmd.Flags().IntVar(&opts.NodeSid, "node-sid", 0, "node whose proxy worker submits the query")
	cmd.Flags().StringArrayVar(&opts.Patterns, "pattern", nil, "subject:predicate:dir:object (repeatable, required)")
	cmd.Flags().StringArrayVar(&opts.Orders, "order", nil, "varid:asc|desc (repeatable)")
	cmd.Flags().BoolVar(&opts.Distinct, "distinct", false, "drop duplicate rows")
	cmd.Flags().Int64Var(&opts.Limit, "limit", -1, "maximum rows to return (-1 = unlimited)")
	cmd.Flags().Int64Var(&opts.Offset, "offset", 0, "rows to skip before the limit window")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "time to wait for the merged reply")
	cmd.Flags().IntVar(&opts.MaxPrintRow, "max-print-row", 0, "cap rows printed (0 = use the config's max_print_row)")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}

func runQuery(opts *QueryOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("sparqld: %w", err)
	}

	patterns, err := parsePatterns(opts.Patterns)
	if err != nil {
		return fmt.Errorf("sparqld: %w", err)
	}
	orders, err := parseOrders(opts.Orders)
	if err != nil {
		return fmt.Errorf("sparqld: %w", err)
	}

	var log *annotations.Collector
	if opts.Verbose {
		formatter := annotations.NewOutputFormatter(os.Stderr)
		log = annotations.NewCollector(formatter.Handle)
	}

	sim, err := buildSimCluster(cfg, opts.DataDir, log)
	if err != nil {
		return fmt.Errorf("sparqld: %w", err)
	}
	defer sim.Close()

	if opts.NodeSid < 0 || opts.NodeSid >= len(sim.Proxies) {
		return fmt.Errorf("sparqld: node-sid %d out of range [0,%d)", opts.NodeSid, len(sim.Proxies))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout+time.Second)
	defer cancel()
	sim.Start(ctx)
	defer sim.Stop()

	px := sim.Proxies[opts.NodeSid]
	reqID, err := px.Submit(model.PatternGroup{Patterns: patterns}, proxy.QueryOptions{
		CorunStep:    -1,
		FetchStep:    0,
		Orders:       orders,
		Limit:        opts.Limit,
		Offset:       opts.Offset,
		Distinct:     opts.Distinct,
		RequiredVars: nil,
	})
	if err != nil {
		return fmt.Errorf("sparqld: %w", err)
	}

	result, err := px.Deliver(ctx, reqID, opts.Timeout)
	if err != nil {
		return fmt.Errorf("sparqld: %w", err)
	}

	maxPrintRow := opts.MaxPrintRow
	if maxPrintRow == 0 {
		maxPrintRow = cfg.MaxPrintRow
	}
	useColor := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	fmt.Println(proxy.Render(result, proxy.QueryOptions{}, nil, 0, maxPrintRow, useColor))
	return nil
}

func parsePatterns(specs []string) ([]model.Pattern, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one --pattern is required")
	}
	patterns := make([]model.Pattern, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("malformed --pattern %q: want subject:predicate:dir:object", spec)
		}
		subject, err := parseID(parts[0])
		if err != nil {
			return nil, err
		}
		predicate, err := parsePredicate(parts[1])
		if err != nil {
			return nil, err
		}
		dir, err := parseDirection(parts[2])
		if err != nil {
			return nil, err
		}
		object, err := parseID(parts[3])
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, model.Pattern{Subject: subject, Predicate: predicate, Direction: dir, Object: object})
	}
	return patterns, nil
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parsePredicate(s string) (int64, error) {
	switch s {
	case "PREDICATE_ID":
		return idspace.PredicateID, nil
	case "TYPE_ID":
		return idspace.TypeID, nil
	default:
		return parseID(s)
	}
}

func parseDirection(s string) (model.Direction, error) {
	switch strings.ToUpper(s) {
	case "OUT":
		return model.OUT, nil
	case "IN":
		return model.IN, nil
	default:
		return 0, fmt.Errorf("invalid direction %q: want OUT or IN", s)
	}
}

func parseOrders(specs []string) ([]model.Order, error) {
	orders := make([]model.Order, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		varID, err := parseID(parts[0])
		if err != nil {
			return nil, fmt.Errorf("malformed --order %q: %w", spec, err)
		}
		desc := false
		if len(parts) > 1 {
			switch strings.ToLower(parts[1]) {
			case "desc":
				desc = true
			case "asc", "":
			default:
				return nil, fmt.Errorf("malformed --order %q: want varid:asc|desc", spec)
			}
		}
		orders = append(orders, model.Order{Var: varID, Desc: desc})
	}
	return orders, nil
}
