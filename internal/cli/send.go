package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shardgraph/shardgraph/pkg/array"
	"github.com/shardgraph/shardgraph/pkg/graph"
	"github.com/shardgraph/shardgraph/pkg/graphio"
	"github.com/shardgraph/shardgraph/pkg/nodeflow"
	"github.com/shardgraph/shardgraph/pkg/transport"
)

func newSendCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "send <file>",
		Short: "Send a graph file to every peer as a node-flow",
		Long: `Send connects to every peer in the cluster config and ships the graph
as a single-layer node-flow, followed by an end-of-stream signal. The
receiving side is the recv command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			logger := loggerFromContext(c.Context())

			cfg, err := loadCluster(configPath)
			if err != nil {
				return err
			}
			g, err := graphio.ReadFile(args[0])
			if err != nil {
				return err
			}
			nf := wholeGraphFlow(g)

			s := transport.NewSocketSender(int32(cfg.Rank), cfg.QueueSize)
			for _, p := range cfg.Peers {
				if err := s.AddReceiver(p.Addr, p.Rank); err != nil {
					return err
				}
			}

			sp := newSpinner(c.Context(), fmt.Sprintf("connecting to %d peers", len(cfg.Peers)))
			sp.start()
			err = s.Connect()
			sp.stop()
			if err != nil {
				return err
			}
			logger.Debug("connected", "peers", len(cfg.Peers))

			prog := newProgress(logger)
			for _, p := range cfg.Peers {
				if err := nodeflow.Send(s, p.Rank, nf); err != nil {
					return err
				}
				if err := nodeflow.SendEndSignal(s, p.Rank); err != nil {
					return err
				}
			}
			if err := s.Finalize(); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Sent %d edges to %d peers", g.NumEdges(), len(cfg.Peers)))
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "cluster.toml", "cluster config file")
	return cmd
}

// wholeGraphFlow wraps a full graph as one single-layer node-flow with
// identity mappings.
func wholeGraphFlow(g *graph.Immutable) *nodeflow.NodeFlow {
	n, m := g.NumVertices(), g.NumEdges()
	nodes := make([]int64, n)
	for i := range nodes {
		nodes[i] = int64(i)
	}
	edges := make([]int64, m)
	for i := range edges {
		edges[i] = int64(i)
	}
	return &nodeflow.NodeFlow{
		Graph:        g,
		NodeMapping:  array.NewInt64(nodes),
		EdgeMapping:  array.NewInt64(edges),
		LayerOffsets: array.NewInt64([]int64{0, n}),
		FlowOffsets:  array.NewInt64([]int64{0, m}),
	}
}
