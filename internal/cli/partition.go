package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/graph"
	"github.com/shardgraph/shardgraph/pkg/graph/transform"
	"github.com/shardgraph/shardgraph/pkg/graphio"
)

// partitionOpts holds the flags of the partition command.
type partitionOpts struct {
	parts  int64  // number of contiguous blocks, if no assignment file
	assign string // node-to-partition assignment file, one integer per line
	hops   int    // halo radius
	out    string // output directory
	watch  bool   // live progress view
}

func newPartitionCmd() *cobra.Command {
	opts := partitionOpts{parts: 2, hops: 1, out: "."}

	cmd := &cobra.Command{
		Use:   "partition <file>",
		Short: "Cut a graph into halo-extended partitions",
		Long: `Partition cuts a graph into per-machine pieces. Each piece keeps a halo:
the nodes within --hops of its own node set, so samplers near the cut
do not need remote lookups.

The node assignment comes from --assign (one partition id per node,
one per line) or, absent that, from --parts contiguous blocks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runPartition(c.Context(), args[0], &opts)
		},
	}

	cmd.Flags().Int64Var(&opts.parts, "parts", opts.parts, "number of contiguous partitions")
	cmd.Flags().StringVar(&opts.assign, "assign", "", "node-to-partition assignment file")
	cmd.Flags().IntVar(&opts.hops, "hops", opts.hops, "halo radius in hops")
	cmd.Flags().StringVar(&opts.out, "out", opts.out, "output directory")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "show live partition progress")

	return cmd
}

func runPartition(ctx context.Context, path string, opts *partitionOpts) error {
	logger := loggerFromContext(ctx)

	g, err := graphio.ReadFile(path)
	if err != nil {
		return err
	}
	logger.Debug("graph loaded", "nodes", g.NumVertices(), "edges", g.NumEdges())

	var assignment []int64
	if opts.assign != "" {
		if assignment, err = readAssignment(opts.assign, g.NumVertices()); err != nil {
			return err
		}
	} else {
		if assignment, err = blockAssignment(g.NumVertices(), opts.parts); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create output directory %s", opts.out)
	}

	prog := newProgress(logger)
	parts, err := transform.PartitionWithHalo(g, assignment, opts.hops)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Computed %d partitions with %d-hop halos", len(parts), opts.hops))

	if opts.watch {
		return watchPartitionWrite(parts, opts.out)
	}
	for _, id := range sortedPartIDs(parts) {
		files, err := writePartition(opts.out, id, parts[id])
		if err != nil {
			return err
		}
		printSuccess("partition %d: %d nodes, %d edges", id,
			parts[id].Graph.NumVertices(), parts[id].Graph.NumEdges())
		for _, f := range files {
			printFile(f)
		}
	}
	return nil
}

// writePartition stores one partition as a binary graph file plus a
// text file mapping each local node to its parent id and inner flag.
func writePartition(dir string, id int64, p *graph.HaloSubgraph) ([]string, error) {
	im, ok := p.Graph.(*graph.Immutable)
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "partition %d is not in CSR form", id)
	}
	graphPath := filepath.Join(dir, fmt.Sprintf("part-%d.graph", id))
	if err := graphio.WriteFile(graphPath, im); err != nil {
		return nil, err
	}

	nodesPath := filepath.Join(dir, fmt.Sprintf("part-%d.nodes", id))
	f, err := os.Create(nodesPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", nodesPath)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for i, parent := range p.InducedVertices {
		fmt.Fprintf(w, "%d %d\n", parent, p.InnerNodes[i])
	}
	if err := w.Flush(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write %s", nodesPath)
	}
	return []string{graphPath, nodesPath}, nil
}

// blockAssignment splits nodes into numParts contiguous blocks of near
// equal size.
func blockAssignment(n, numParts int64) ([]int64, error) {
	if numParts <= 0 || numParts > n {
		return nil, errors.New(errors.ErrCodeInvalidArgument,
			"cannot cut %d nodes into %d partitions", n, numParts)
	}
	block := (n + numParts - 1) / numParts
	out := make([]int64, n)
	for v := int64(0); v < n; v++ {
		out[v] = v / block
	}
	return out, nil
}

// readAssignment parses a one-id-per-line assignment file.
func readAssignment(path string, n int64) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open assignment %s", path)
	}
	defer f.Close()

	out := make([]int64, 0, n)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidArgument, err,
				"assignment line %d is not an integer", len(out)+1)
		}
		out = append(out, id)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read assignment %s", path)
	}
	if int64(len(out)) != n {
		return nil, errors.New(errors.ErrCodeInvalidArgument,
			"assignment has %d entries for %d nodes", len(out), n)
	}
	return out, nil
}

func sortedPartIDs(parts map[int64]*graph.HaloSubgraph) []int64 {
	ids := make([]int64, 0, len(parts))
	for id := range parts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
