// Package cli implements the shardgraph command-line interface.
//
// Commands cover the offline side of the engine (info, partition, dot)
// and the online side (send, recv, kvserver, serve). All commands
// support --verbose (-v) for debug-level logging; loggers travel on
// the command context.
//
// Library errors stay recoverable; the CLI is where protocol and
// transport failures turn into a non-zero exit.
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion records the build information shown by --version. Called
// by the main package with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the shardgraph CLI.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "shardgraph",
		Short:        "Shardgraph partitions and serves graph structure for distributed training",
		Long: `Shardgraph is a graph structure engine: it stores directed multigraphs
in CSR form, cuts them into halo-extended partitions, and moves sampled
subgraphs and tensor state between training processes.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("shardgraph %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newInfoCmd())
	root.AddCommand(newPartitionCmd())
	root.AddCommand(newDotCmd())
	root.AddCommand(newSendCmd())
	root.AddCommand(newRecvCmd())
	root.AddCommand(newKVServerCmd())
	root.AddCommand(newServeCmd())

	return root.ExecuteContext(ctx)
}
