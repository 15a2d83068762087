package graphio

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/graph"
)

// DOTOptions configures DOT export.
type DOTOptions struct {
	// EdgeIDs labels every edge with its id.
	EdgeIDs bool
	// Halo renders halo nodes and edges (mask value 0) dashed and grey,
	// matching the given masks by subgraph id. Nil masks disable this.
	HaloNodes []int64
	HaloEdges []int64
}

// ToDOT converts a graph to Graphviz DOT. Node names are the graph's
// dense ids, so the output is stable for a given graph.
func ToDOT(g graph.Graph, opts DOTOptions) (string, error) {
	ea, err := g.Edges(graph.OrderEID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=circle, fontsize=12];\n")
	buf.WriteString("\n")

	for v := int64(0); v < g.NumVertices(); v++ {
		if opts.HaloNodes != nil && opts.HaloNodes[v] == 0 {
			fmt.Fprintf(&buf, "  %d [style=dashed, color=grey];\n", v)
		} else {
			fmt.Fprintf(&buf, "  %d;\n", v)
		}
	}

	buf.WriteString("\n")
	for i := 0; i < ea.Len(); i++ {
		var attrs []string
		if opts.EdgeIDs {
			attrs = append(attrs, fmt.Sprintf("label=\"e%d\"", ea.ID[i]))
		}
		if opts.HaloEdges != nil && opts.HaloEdges[i] == 0 {
			attrs = append(attrs, "style=dashed", "color=grey")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %d -> %d;\n", ea.Src[i], ea.Dst[i])
			continue
		}
		fmt.Fprintf(&buf, "  %d -> %d [%s];\n", ea.Src[i], ea.Dst[i], joinAttrs(attrs))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func joinAttrs(attrs []string) string {
	out := attrs[0]
	for _, a := range attrs[1:] {
		out += ", " + a
	}
	return out
}

// RenderSVG renders a DOT string to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT string to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return buf.Bytes(), nil
}
