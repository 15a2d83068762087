package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/graphio"
	"github.com/shardgraph/shardgraph/pkg/nodeflow"
	"github.com/shardgraph/shardgraph/pkg/transport"
)

func newRecvCmd() *cobra.Command {
	var (
		configPath string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Receive node-flows from every peer until they finish",
		Long: `Recv listens on the cluster config's address, waits for every peer to
connect, and drains their node-flow streams. With --out, each received
graph is written to disk.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			logger := loggerFromContext(c.Context())

			cfg, err := loadCluster(configPath)
			if err != nil {
				return err
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "create output directory %s", outDir)
				}
			}

			r := transport.NewSocketReceiver(cfg.QueueSize)
			if err := r.Listen(cfg.Listen); err != nil {
				return err
			}
			defer r.Finalize()

			sp := newSpinner(c.Context(), fmt.Sprintf("waiting for %d peers on %s", len(cfg.Peers), r.Addr()))
			sp.start()
			err = r.Wait(len(cfg.Peers))
			sp.stop()
			if err != nil {
				return err
			}

			active := len(cfg.Peers)
			var received int
			for active > 0 {
				nf, senderID, more, err := nodeflow.Recv(r)
				if err != nil {
					return err
				}
				if !more {
					logger.Debug("stream ended", "sender", senderID)
					active--
					continue
				}
				logger.Info("node-flow received", "sender", senderID,
					"nodes", nf.Graph.NumVertices(), "edges", nf.Graph.NumEdges())
				if outDir != "" {
					path := filepath.Join(outDir, fmt.Sprintf("flow-%d-%d.graph", senderID, received))
					if err := graphio.WriteFile(path, nf.Graph); err != nil {
						return err
					}
					printFile(path)
				}
				received++
			}
			printSuccess("received %d node-flows from %d peers", received, len(cfg.Peers))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "cluster.toml", "cluster config file")
	cmd.Flags().StringVar(&outDir, "out", "", "write received graphs to this directory")
	return cmd
}
