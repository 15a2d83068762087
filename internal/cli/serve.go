package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/shardgraph/shardgraph/pkg/graph/transform"
	"github.com/shardgraph/shardgraph/pkg/graphio"
	"github.com/shardgraph/shardgraph/pkg/inspect"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	addr  string
	parts int64
	hops  int
}

func newServeCmd() *cobra.Command {
	opts := serveOpts{addr: ":8080", hops: 1}

	cmd := &cobra.Command{
		Use:   "serve <file>",
		Short: "Serve a read-only HTTP inspection API for a graph",
		Long: `Serve loads a graph file and exposes it over HTTP: /api/graph for
structure statistics and /api/partitions for halo partition summaries
when --parts is set. The server runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			logger := loggerFromContext(c.Context())

			g, err := graphio.ReadFile(args[0])
			if err != nil {
				return err
			}
			svc := inspect.NewService(logger)
			svc.LoadGraph(args[0], g)

			if opts.parts > 0 {
				assignment, err := blockAssignment(g.NumVertices(), opts.parts)
				if err != nil {
					return err
				}
				parts, err := transform.PartitionWithHalo(g, assignment, opts.hops)
				if err != nil {
					return err
				}
				svc.SetPartitions(parts)
				logger.Info("partitions computed", "parts", len(parts), "hops", opts.hops)
			}

			srv := &http.Server{
				Addr:              opts.addr,
				Handler:           svc.Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-c.Context().Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx) //nolint:errcheck // best effort on interrupt
			}()

			logger.Info("inspection API listening", "addr", opts.addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "HTTP listen address")
	cmd.Flags().Int64Var(&opts.parts, "parts", 0, "also serve this many halo partitions")
	cmd.Flags().IntVar(&opts.hops, "hops", opts.hops, "halo radius for --parts")
	return cmd
}
