package cli

import (
	"context"
	"fmt"

	"github.com/araxia/sparqld/internal/annotations"
	"github.com/araxia/sparqld/internal/cluster"
	"github.com/araxia/sparqld/internal/config"
	"github.com/araxia/sparqld/internal/engine"
	"github.com/araxia/sparqld/internal/forkjoin"
	"github.com/araxia/sparqld/internal/graphstore"
	"github.com/araxia/sparqld/internal/proxy"
	"github.com/araxia/sparqld/internal/stepexec"
	"github.com/araxia/sparqld/internal/transport"
)

// simCluster is every node of a single-process, single-binary cluster
// simulation, using LocalTransport over one shared fabric so every
// simulated node can reach every other.
type simCluster struct {
	Nodes   []*cluster.Node
	Proxies []*proxy.Proxy
	Shards  []graphstore.Shard
}

func buildSimCluster(cfg config.Cluster, dataDir string, log *annotations.Collector) (*simCluster, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fabric := transport.NewLocalFabric(4096)
	topo := forkjoin.Topology{NumNodes: cfg.NumServers, RDMACapable: cfg.UseRDMA, RDMAThreshold: cfg.RDMAThreshold}

	sim := &simCluster{}
	for sid := 0; sid < cfg.NumServers; sid++ {
		shard, err := graphstore.OpenBadgerShard(nodeShardPath(dataDir, sid))
		if err != nil {
			return nil, fmt.Errorf("cli: open shard for node %d: %w", sid, err)
		}
		sim.Shards = append(sim.Shards, shard)

		tp := transport.NewLocalTransportOnFabric(fabric, sid, cfg.UseRDMA)

		engineCfg := engine.Config{
			Step: stepexec.Config{
				MtThreshold:     cfg.EffectiveMtThreshold(),
				EnableVattr:     cfg.EnableVattr,
				EnableVersatile: cfg.EnableVersatile,
			},
			Topology:           topo,
			EnableWorkStealing: cfg.EnableWorkStealing,
			TimeoutThreshold:   cfg.TimeoutThreshold(),
		}

		node, err := cluster.Build(sid, cfg.NumEnginesPerServer, cfg.NumProxiesPerServer, shard, tp, engineCfg, log)
		if err != nil {
			return nil, fmt.Errorf("cli: build node %d: %w", sid, err)
		}
		sim.Nodes = append(sim.Nodes, node)

		px := proxy.New(sid, 0, cfg.NumServers, node, tp, topo, log)
		sim.Proxies = append(sim.Proxies, px)
	}

	return sim, nil
}

// Start launches every node's engine workers and every proxy's inbox loop.
func (s *simCluster) Start(ctx context.Context) {
	for _, n := range s.Nodes {
		n.Start(ctx)
	}
	for _, p := range s.Proxies {
		go p.Run(ctx)
	}
}

func (s *simCluster) Stop() {
	for _, n := range s.Nodes {
		n.Stop()
	}
}

func (s *simCluster) Close() error {
	var firstErr error
	for _, sh := range s.Shards {
		if err := sh.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
