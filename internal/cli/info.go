package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shardgraph/shardgraph/pkg/graphio"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print structure statistics for a graph file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			logger := loggerFromContext(c.Context())

			prog := newProgress(logger)
			g, err := graphio.ReadFile(args[0])
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Loaded %d nodes and %d edges", g.NumVertices(), g.NumEdges()))

			fmt.Println(styleTitle.Render(args[0]))
			printKeyValue("nodes", fmt.Sprintf("%d", g.NumVertices()))
			printKeyValue("edges", fmt.Sprintf("%d", g.NumEdges()))
			printKeyValue("multigraph", fmt.Sprintf("%v", g.IsMultigraph()))

			var maxIn, maxOut int64
			for v := int64(0); v < g.NumVertices(); v++ {
				if d := g.InDegree(v); d > maxIn {
					maxIn = d
				}
				if d := g.OutDegree(v); d > maxOut {
					maxOut = d
				}
			}
			avg := 0.0
			if g.NumVertices() > 0 {
				avg = float64(g.NumEdges()) / float64(g.NumVertices())
			}
			printKeyValue("max in-deg", fmt.Sprintf("%d", maxIn))
			printKeyValue("max out-deg", fmt.Sprintf("%d", maxOut))
			printKeyValue("avg degree", fmt.Sprintf("%.2f", avg))
			return nil
		},
	}
}
