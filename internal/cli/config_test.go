package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shardgraph/shardgraph/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cluster.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCluster(t *testing.T) {
	path := writeConfig(t, `
rank = 0
listen = "socket://0.0.0.0:50051"

[[peer]]
rank = 1
addr = "socket://10.0.0.2:50051"

[[peer]]
rank = 2
addr = "socket://10.0.0.3:50051"
`)
	cfg, err := loadCluster(path)
	if err != nil {
		t.Fatalf("loadCluster() error: %v", err)
	}
	if cfg.Rank != 0 || cfg.Listen != "socket://0.0.0.0:50051" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Peers) != 2 || cfg.Peers[1].Rank != 2 {
		t.Errorf("peers = %+v, want ranks 1 and 2", cfg.Peers)
	}
	// queue_size defaults when omitted.
	if cfg.QueueSize <= 0 {
		t.Errorf("QueueSize = %d, want a positive default", cfg.QueueSize)
	}
}

func TestLoadClusterErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"duplicate rank", "rank = 1\n[[peer]]\nrank = 1\naddr = \"socket://h:1\"\n"},
		{"missing addr", "rank = 0\n[[peer]]\nrank = 1\n"},
		{"bad queue size", "rank = 0\nqueue_size = -1\n"},
		{"not toml", "{\"rank\": 0}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadCluster(writeConfig(t, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidArgument) {
				t.Errorf("loadCluster() error = %v, want INVALID_ARGUMENT", err)
			}
		})
	}
}
