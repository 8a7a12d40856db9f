package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.toml")
	body := `
num_servers = 2
num_engines_per_server = 4
num_proxies_per_server = 1
use_rdma = false
max_print_row = 50

[[node]]
sid = 0
address = "127.0.0.1:9000"

[[node]]
sid = 1
address = "127.0.0.1:9001"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NumServers != 2 || cfg.NumEnginesPerServer != 4 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if len(cfg.Nodes) != 2 || cfg.Nodes[1].Address != "127.0.0.1:9001" {
		t.Fatalf("nodes not parsed: %+v", cfg.Nodes)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/cluster.toml"); err == nil {
		t.Fatal("expected an error loading a missing file")
	}
}

func TestValidateRejectsMismatchedMtThreshold(t *testing.T) {
	c := Cluster{NumServers: 1, NumEnginesPerServer: 4, MtThreshold: 3}
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error when mt_threshold != num_engines_per_server")
	}
}

func TestValidateRejectsMismatchedNodeCount(t *testing.T) {
	c := Cluster{NumServers: 2, NumEnginesPerServer: 1, Nodes: []Node{{Sid: 0}}}
	if err := c.Validate(); err == nil {
		t.Fatal("expected an error when len(Nodes) != NumServers")
	}
}

func TestEffectiveMtThresholdDefaultsToEngineCount(t *testing.T) {
	c := Cluster{NumEnginesPerServer: 6}
	if got := c.EffectiveMtThreshold(); got != 6 {
		t.Fatalf("EffectiveMtThreshold = %d, want 6", got)
	}
	c.MtThreshold = 6
	if got := c.EffectiveMtThreshold(); got != 6 {
		t.Fatalf("EffectiveMtThreshold = %d, want 6", got)
	}
}

func TestTimeoutThresholdDefault(t *testing.T) {
	c := Cluster{}
	if got := c.TimeoutThreshold(); got != 10*time.Millisecond {
		t.Fatalf("default TimeoutThreshold = %v, want 10ms", got)
	}
	c.TimeoutThresholdMicros = 5000
	if got := c.TimeoutThreshold(); got != 5*time.Millisecond {
		t.Fatalf("TimeoutThreshold = %v, want 5ms", got)
	}
}
