package transform

import (
	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/graph"
)

// DisjointUnion concatenates graphs of the same kind into one graph:
// node and edge ids of graph i are shifted by the totals of the graphs
// before it. The inverse operation is [DisjointPartitionBySizes].
func DisjointUnion(graphs []graph.Graph) (graph.Graph, error) {
	if len(graphs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "union of zero graphs")
	}
	kind := graphs[0].Kind()
	for _, g := range graphs[1:] {
		if g.Kind() != kind {
			return nil, errors.New(errors.ErrCodeInvalidArgument,
				"cannot union %s and %s graphs", kind, g.Kind())
		}
	}
	if kind == graph.KindMutable {
		return unionMutable(graphs)
	}
	return unionImmutable(graphs)
}

func unionMutable(graphs []graph.Graph) (*graph.Mutable, error) {
	out := graph.NewMutable()
	var offset int64
	for _, g := range graphs {
		mg := g.(*graph.Mutable)
		if err := out.AddVertices(mg.NumVertices()); err != nil {
			return nil, err
		}
		src, dst := mg.EdgeEndpoints()
		for i := range src {
			if err := out.AddEdge(src[i]+offset, dst[i]+offset); err != nil {
				return nil, err
			}
		}
		offset += mg.NumVertices()
	}
	return out, nil
}

// unionImmutable merges the in-CSR views directly, rebasing row
// offsets, column ids, and edge ids by the cumulative totals.
func unionImmutable(graphs []graph.Graph) (*graph.Immutable, error) {
	var numNodes, numEdges int64
	for _, g := range graphs {
		numNodes += g.NumVertices()
		numEdges += g.NumEdges()
	}

	merged := &graph.CSR{
		Indptr:  make([]int64, numNodes+1),
		Indices: make([]int64, numEdges),
		EdgeIDs: make([]int64, numEdges),
	}
	var cumNodes, cumEdges int64
	for _, g := range graphs {
		in := g.(*graph.Immutable).InCSR()
		n, m := in.NumVertices(), in.NumEdges()
		for i := int64(1); i <= n; i++ {
			merged.Indptr[cumNodes+i] = in.Indptr[i] + cumEdges
		}
		for i := int64(0); i < m; i++ {
			merged.Indices[cumEdges+i] = in.Indices[i] + cumNodes
			merged.EdgeIDs[cumEdges+i] = in.EdgeIDs[i] + cumEdges
		}
		cumNodes += n
		cumEdges += m
	}
	return graph.NewImmutableFromCSR(merged, graph.DirIn)
}

// DisjointPartitionByNum splits a graph into num equally sized node
// segments. The node count must divide evenly.
func DisjointPartitionByNum(g graph.Graph, num int64) ([]graph.Graph, error) {
	if num <= 0 || g.NumVertices()%num != 0 {
		return nil, errors.New(errors.ErrCodeInvalidArgument,
			"%d partitions do not evenly divide %d nodes", num, g.NumVertices())
	}
	sizes := make([]int64, num)
	for i := range sizes {
		sizes[i] = g.NumVertices() / num
	}
	return DisjointPartitionBySizes(g, sizes)
}

// DisjointPartitionBySizes splits a graph into consecutive node
// segments of the given sizes. Every edge must stay within one segment,
// as is the case for graphs produced by [DisjointUnion]; a crossing
// edge is an INVALID_ARGUMENT error.
func DisjointPartitionBySizes(g graph.Graph, sizes []int64) ([]graph.Graph, error) {
	cumsum := make([]int64, len(sizes)+1)
	for i, s := range sizes {
		if s < 0 {
			return nil, errors.New(errors.ErrCodeInvalidArgument, "negative segment size %d", s)
		}
		cumsum[i+1] = cumsum[i] + s
	}
	if cumsum[len(sizes)] != g.NumVertices() {
		return nil, errors.New(errors.ErrCodeInvalidArgument,
			"segment sizes sum to %d, graph has %d nodes", cumsum[len(sizes)], g.NumVertices())
	}

	if g.Kind() == graph.KindMutable {
		return partitionMutable(g.(*graph.Mutable), cumsum)
	}
	return partitionImmutable(g.(*graph.Immutable), cumsum)
}

func partitionMutable(g *graph.Mutable, cumsum []int64) ([]graph.Graph, error) {
	src, dst := g.EdgeEndpoints()
	out := make([]graph.Graph, 0, len(cumsum)-1)
	var edgeOffset int64
	for i := 0; i < len(cumsum)-1; i++ {
		start, end := cumsum[i], cumsum[i+1]
		var numEdges int64
		for u := start; u < end; u++ {
			numEdges += g.OutDegree(u)
		}
		part := graph.NewMutableWithVertices(end - start)
		for e := edgeOffset; e < edgeOffset+numEdges; e++ {
			s, d := src[e]-start, dst[e]-start
			if err := part.AddEdge(s, d); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidArgument, err,
					"edge %d crosses segment %d", e, i)
			}
		}
		edgeOffset += numEdges
		out = append(out, part)
	}
	return out, nil
}

// partitionImmutable slices the in-CSR per segment and rebases column
// and edge ids by the segment offsets.
func partitionImmutable(g *graph.Immutable, cumsum []int64) ([]graph.Graph, error) {
	in := g.InCSR()
	out := make([]graph.Graph, 0, len(cumsum)-1)
	var cumEdges int64
	for i := 0; i < len(cumsum)-1; i++ {
		start, end := cumsum[i], cumsum[i+1]
		lo, hi := in.Indptr[start], in.Indptr[end]
		part := &graph.CSR{
			Indptr:  make([]int64, end-start+1),
			Indices: make([]int64, hi-lo),
			EdgeIDs: make([]int64, hi-lo),
		}
		for v := start + 1; v <= end; v++ {
			part.Indptr[v-start] = in.Indptr[v] - lo
		}
		for j := lo; j < hi; j++ {
			u := in.Indices[j] - start
			if u < 0 || u >= end-start {
				return nil, errors.New(errors.ErrCodeInvalidArgument,
					"edge %d crosses segment %d", in.EdgeIDs[j], i)
			}
			part.Indices[j-lo] = u
			part.EdgeIDs[j-lo] = in.EdgeIDs[j] - cumEdges
		}
		pg, err := graph.NewImmutableFromCSR(part, graph.DirIn)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidArgument, err,
				"segment %d is not a disjoint block", i)
		}
		cumEdges += hi - lo
		out = append(out, pg)
	}
	return out, nil
}
