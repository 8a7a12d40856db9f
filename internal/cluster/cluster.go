// Package cluster wires the process-global set of engine workers and
// proxy workers for one node. Engine workers reference each other for
// fast-path push, reply-map deposit, and work-stealing; this is modeled
// as a fixed-size array of handles built once at startup and never
// mutated afterward.
package cluster

import (
	"context"
	"fmt"

	"github.com/araxia/sparqld/internal/annotations"
	"github.com/araxia/sparqld/internal/engine"
	"github.com/araxia/sparqld/internal/graphstore"
	"github.com/araxia/sparqld/internal/transport"
)

// Node owns every engine worker on one server, indexed by tid -
// num_proxies (tid 0..num_proxies-1 are reserved for proxy workers and
// have no Engine entry here).
type Node struct {
	Sid         int
	NumProxies  int
	Engines     []*engine.Engine // indexed by tid - NumProxies
	cancel      context.CancelFunc
}

// Build constructs every engine worker for this node and wires their
// neighbor pointers for work-stealing (workers are paired (0,1), (2,3),
// ... within a node, so each paired worker has exactly one steal target;
// with an odd engine count the last worker has none).
func Build(sid, numEngines, numProxies int, shard graphstore.Shard, tp transport.Transport, cfg engine.Config, log *annotations.Collector) (*Node, error) {
	if numEngines <= 0 {
		return nil, fmt.Errorf("cluster: num_engines_per_server must be positive, got %d", numEngines)
	}

	engines := make([]*engine.Engine, numEngines)
	for i := 0; i < numEngines; i++ {
		tid := numProxies + i
		engines[i] = engine.New(sid, tid, shard, tp, cfg, log)
	}
	for i := 0; i+1 < numEngines; i += 2 {
		engines[i].SetNeighbor(engines[i+1])
		engines[i+1].SetNeighbor(engines[i])
	}

	return &Node{Sid: sid, NumProxies: numProxies, Engines: engines}, nil
}

// EngineForTid returns the engine handle owning worker tid, or nil if
// tid names a proxy worker or is out of range.
func (n *Node) EngineForTid(tid int) *engine.Engine {
	idx := tid - n.NumProxies
	if idx < 0 || idx >= len(n.Engines) {
		return nil
	}
	return n.Engines[idx]
}

// Start launches every engine worker's main loop in its own goroutine.
func (n *Node) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	for _, e := range n.Engines {
		go e.Run(ctx)
	}
}

// Stop cancels every engine worker's main loop.
func (n *Node) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
}
