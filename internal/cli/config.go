package cli

import (
	"github.com/BurntSushi/toml"

	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/transport"
)

// ClusterConfig describes one process's place in a communicator group:
// its own rank and listen address plus every peer it talks to.
//
// Example:
//
//	rank = 0
//	listen = "socket://0.0.0.0:50051"
//	queue_size = 512
//
//	[[peer]]
//	rank = 1
//	addr = "socket://10.0.0.2:50051"
type ClusterConfig struct {
	Rank      int    `toml:"rank"`
	Listen    string `toml:"listen"`
	QueueSize int    `toml:"queue_size"`
	Peers     []Peer `toml:"peer"`
}

// Peer is one remote process in the cluster.
type Peer struct {
	Rank int    `toml:"rank"`
	Addr string `toml:"addr"`
}

// loadCluster reads and validates a TOML cluster config.
func loadCluster(path string) (*ClusterConfig, error) {
	cfg := &ClusterConfig{QueueSize: transport.DefaultQueueSize}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgument, err, "parse cluster config %s", path)
	}
	if cfg.QueueSize <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "queue_size must be positive, got %d", cfg.QueueSize)
	}
	seen := map[int]bool{cfg.Rank: true}
	for _, p := range cfg.Peers {
		if seen[p.Rank] {
			return nil, errors.New(errors.ErrCodeInvalidArgument, "duplicate rank %d in cluster config", p.Rank)
		}
		seen[p.Rank] = true
		if p.Addr == "" {
			return nil, errors.New(errors.ErrCodeInvalidArgument, "peer %d has no address", p.Rank)
		}
	}
	return cfg, nil
}
