package cli

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/shardgraph/shardgraph/pkg/kvstore"
	"github.com/shardgraph/shardgraph/pkg/transport"
)

func newKVServerCmd() *cobra.Command {
	var (
		configPath string
		redisAddr  string
	)

	cmd := &cobra.Command{
		Use:   "kvserver",
		Short: "Run a key-value tensor server for the cluster",
		Long: `Kvserver hosts shared training state. It waits for every peer in the
cluster config to connect, opens a reply channel back to each one, and
serves init/push/pull requests until all peers shut down.

State lives in memory unless --redis points at a Redis instance, in
which case tensors survive a server restart.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			logger := loggerFromContext(c.Context())

			cfg, err := loadCluster(configPath)
			if err != nil {
				return err
			}

			var store kvstore.Store = kvstore.NewMemoryStore()
			if redisAddr != "" {
				rs := kvstore.NewRedisStore(&redis.Options{Addr: redisAddr})
				defer rs.Close()
				store = rs
				logger.Info("using redis store", "addr", redisAddr)
			}

			r := transport.NewSocketReceiver(cfg.QueueSize)
			if err := r.Listen(cfg.Listen); err != nil {
				return err
			}
			defer r.Finalize()

			sp := newSpinner(c.Context(), fmt.Sprintf("waiting for %d clients on %s", len(cfg.Peers), r.Addr()))
			sp.start()
			err = r.Wait(len(cfg.Peers))
			sp.stop()
			if err != nil {
				return err
			}

			// Reply channels back to every client, one sender each.
			clients := make(map[int]transport.Sender, len(cfg.Peers))
			for _, p := range cfg.Peers {
				s := transport.NewSocketSender(int32(cfg.Rank), cfg.QueueSize)
				if err := s.AddReceiver(p.Addr, 0); err != nil {
					return err
				}
				if err := s.Connect(); err != nil {
					return err
				}
				defer s.Finalize()
				clients[p.Rank] = s
			}
			logger.Info("kvstore serving", "rank", cfg.Rank, "clients", len(clients))

			srv := kvstore.NewServer(int32(cfg.Rank), store, r, clients, logger)
			return srv.Run(c.Context())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "cluster.toml", "cluster config file")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "back tensors with this Redis instance")
	return cmd
}
