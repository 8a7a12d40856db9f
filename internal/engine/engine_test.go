package engine

import (
	"context"
	"testing"
	"time"

	"github.com/araxia/sparqld/internal/forkjoin"
	"github.com/araxia/sparqld/internal/graphstore"
	"github.com/araxia/sparqld/internal/model"
	"github.com/araxia/sparqld/internal/stepexec"
	"github.com/araxia/sparqld/internal/transport"
	"github.com/araxia/sparqld/internal/wire"
	"github.com/araxia/sparqld/internal/wireid"
)

func openTestShard(t *testing.T) graphstore.Shard {
	t.Helper()
	shard, err := graphstore.OpenBadgerShard(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadgerShard: %v", err)
	}
	t.Cleanup(func() { shard.Close() })
	return shard
}

// TestEngineRunScattersAndRepliesToRequester drives a single-node,
// single-engine simulation through a query whose second pattern has a
// variable subject, forcing executeRequest to scatter; with
// one topology node the sub-query lands back on the spawning worker's own
// fast path, runs to completion, merges through the reply map, and is
// finally delivered to a distinct "proxy" worker id on the same transport.
func TestEngineRunScattersAndRepliesToRequester(t *testing.T) {
	shard := openTestShard(t)
	if err := shard.Assert(graphstore.Batch{
		Edges: []graphstore.Edge{
			{Subject: 1, Predicate: 10, Object: 2},
			{Subject: 2, Predicate: 20, Object: 3},
		},
	}); err != nil {
		t.Fatalf("Assert: %v", err)
	}

	tp := transport.NewLocalTransport(0, 16, false)
	cfg := Config{
		Step:               stepexec.Config{MtThreshold: 1},
		Topology:           forkjoin.Topology{NumNodes: 1, RDMACapable: false},
		EnableWorkStealing: false,
		TimeoutThreshold:   10 * time.Millisecond,
	}
	eng := New(0, 0, shard, tp, cfg, nil)

	const proxyTid = 1
	q := &model.Query{
		PID: wireid.Pack(0, proxyTid, 0),
		PatternGroup: model.PatternGroup{
			Patterns: []model.Pattern{
				{Subject: 1, Predicate: 10, Direction: model.OUT, Object: -1},
				{Subject: -1, Predicate: 20, Direction: model.OUT, Object: -2},
			},
		},
		CorunStep: -1,
	}
	q.Result = model.NewResultTable()
	eng.Submit(q)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	deadline := time.After(2 * time.Second)
	for {
		if b, ok := tp.TryRecv(proxyTid); ok {
			reply, err := wire.DecodeQuery(b.Payload)
			if err != nil {
				t.Fatalf("DecodeQuery: %v", err)
			}
			if reply.Result.RowNum != 1 {
				t.Fatalf("final reply RowNum = %d, want 1", reply.Result.RowNum)
			}
			if reply.Result.Rows[0][1] != 3 {
				t.Fatalf("final reply row = %v, want [.., 3]", reply.Result.Rows[0])
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the final reply")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
