// Package config loads the TOML cluster configuration the bootstrap CLI
// consumes.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Node names one server in the cluster's address table.
type Node struct {
	Sid     int    `toml:"sid"`
	Address string `toml:"address"`
}

// Cluster is the root configuration document describing the cluster
// topology and the knobs the engine consumes.
type Cluster struct {
	NumServers         int    `toml:"num_servers"`
	NumEnginesPerServer int   `toml:"num_engines_per_server"`
	NumProxiesPerServer int   `toml:"num_proxies_per_server"`

	RDMAThreshold int64 `toml:"rdma_threshold"`
	MtThreshold   int   `toml:"mt_threshold"`

	UseRDMA            bool `toml:"use_rdma"`
	EnableWorkStealing bool `toml:"enable_workstealing"`
	EnableVattr        bool `toml:"enable_vattr"`
	EnableVersatile    bool `toml:"enable_versatile"`
	Silent             bool `toml:"silent"`
	MaxPrintRow        int  `toml:"max_print_row"`

	// TimeoutThresholdMicros is the work-steal idle timeout, in
	// microseconds, converted to time.Duration by TimeoutThreshold().
	TimeoutThresholdMicros int64 `toml:"timeout_threshold_us"`

	Nodes []Node `toml:"node"`
}

// TimeoutThreshold returns the work-steal idle timeout as a
// time.Duration, defaulting to 10ms if unset.
func (c Cluster) TimeoutThreshold() time.Duration {
	if c.TimeoutThresholdMicros <= 0 {
		return 10 * time.Millisecond
	}
	return time.Duration(c.TimeoutThresholdMicros) * time.Microsecond
}

// Load parses a cluster configuration file and validates the knobs the
// core actually consumes.
func Load(path string) (Cluster, error) {
	var c Cluster
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Cluster{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Cluster{}, err
	}
	return c, nil
}

// Validate checks the invariants the engine and fork-join packages
// assume hold.
func (c Cluster) Validate() error {
	if c.NumServers <= 0 {
		return fmt.Errorf("config: num_servers must be positive")
	}
	if c.NumEnginesPerServer <= 0 {
		return fmt.Errorf("config: num_engines_per_server must be positive")
	}
	if c.MtThreshold != 0 && c.MtThreshold != c.NumEnginesPerServer {
		return fmt.Errorf("config: mt_threshold (%d) must equal num_engines_per_server (%d)", c.MtThreshold, c.NumEnginesPerServer)
	}
	if len(c.Nodes) != 0 && len(c.Nodes) != c.NumServers {
		return fmt.Errorf("config: %d node addresses given for num_servers=%d", len(c.Nodes), c.NumServers)
	}
	return nil
}

// EffectiveMtThreshold returns mt_threshold, defaulting to
// num_engines_per_server when unset in the file (the two are required to
// be equal whenever both are present).
func (c Cluster) EffectiveMtThreshold() int {
	if c.MtThreshold != 0 {
		return c.MtThreshold
	}
	return c.NumEnginesPerServer
}
