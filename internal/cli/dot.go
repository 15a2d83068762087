package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/graphio"
)

// dotOpts holds the flags of the dot command.
type dotOpts struct {
	output  string
	edgeIDs bool
}

func newDotCmd() *cobra.Command {
	var opts dotOpts

	cmd := &cobra.Command{
		Use:   "dot <file>",
		Short: "Export a graph as DOT, SVG, or PNG",
		Long: `Dot renders a graph file for inspection. The output format follows the
-o extension: .dot writes plain DOT, .svg and .png render through
graphviz. Without -o the DOT text goes to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			g, err := graphio.ReadFile(args[0])
			if err != nil {
				return err
			}
			dot, err := graphio.ToDOT(g, graphio.DOTOptions{EdgeIDs: opts.edgeIDs})
			if err != nil {
				return err
			}

			switch {
			case opts.output == "":
				_, err = os.Stdout.WriteString(dot)
				return err
			case strings.HasSuffix(opts.output, ".svg"):
				data, err := graphio.RenderSVG(c.Context(), dot)
				if err != nil {
					return err
				}
				return writeOutput(opts.output, data)
			case strings.HasSuffix(opts.output, ".png"):
				data, err := graphio.RenderPNG(c.Context(), dot)
				if err != nil {
					return err
				}
				return writeOutput(opts.output, data)
			case strings.HasSuffix(opts.output, ".dot"):
				return writeOutput(opts.output, []byte(dot))
			default:
				return errors.New(errors.ErrCodeInvalidArgument,
					"unknown output format %s, want .dot, .svg, or .png", opts.output)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout DOT if empty)")
	cmd.Flags().BoolVar(&opts.edgeIDs, "edge-ids", false, "label edges with their ids")

	return cmd
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	printFile(path)
	return nil
}
