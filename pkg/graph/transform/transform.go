package transform

import (
	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/graph"
)

// Reverse returns a graph with every edge flipped, preserving node and
// edge ids. Only immutable graphs support it; the result is a
// constant-time view swap sharing the parent's arrays.
func Reverse(g graph.Graph) (*graph.Immutable, error) {
	im, ok := g.(*graph.Immutable)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedOp, "cannot reverse a %s graph", g.Kind())
	}
	return im.Reverse(), nil
}

// LineGraph returns the line graph of g: one node per edge of g, and an
// edge a→b whenever edge a ends where edge b starts. With backtracking
// disabled, successors that immediately return to a's source are
// skipped. Only mutable graphs support it.
func LineGraph(g graph.Graph, backtracking bool) (*graph.Mutable, error) {
	m, ok := g.(*graph.Mutable)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedOp, "cannot take the line graph of a %s graph", g.Kind())
	}
	src, dst := m.EdgeEndpoints()

	var lsrc, ldst []int64
	for a := int64(0); a < m.NumEdges(); a++ {
		u, v := src[a], dst[a]
		nbrs, eids := m.SuccEdges(v)
		for i, w := range nbrs {
			if !backtracking && w == u {
				continue
			}
			lsrc = append(lsrc, a)
			ldst = append(ldst, eids[i])
		}
	}
	lg := graph.NewMutableWithVertices(m.NumEdges())
	if err := lg.AddEdges(lsrc, ldst); err != nil {
		return nil, err
	}
	return lg, nil
}

// ToSimple collapses parallel edges, keeping for each (src, dst) pair
// the copy with the smallest edge id. The result is an immutable simple
// graph; InducedEdges maps each surviving edge to the parent edge it
// came from.
func ToSimple(g graph.Graph) (*graph.Subgraph, error) {
	ea, err := g.Edges(graph.OrderSrc)
	if err != nil {
		return nil, err
	}

	n := g.NumVertices()
	csr := &graph.CSR{Indptr: make([]int64, n+1)}
	var induced []int64

	i := 0
	for u := int64(0); u < n; u++ {
		seen := map[int64]bool{}
		for i < ea.Len() && ea.Src[i] == u {
			if d := ea.Dst[i]; !seen[d] {
				seen[d] = true
				csr.Indices = append(csr.Indices, d)
				csr.EdgeIDs = append(csr.EdgeIDs, int64(len(induced)))
				induced = append(induced, ea.ID[i])
			}
			i++
		}
		csr.Indptr[u+1] = int64(len(csr.Indices))
	}

	sg, err := graph.NewImmutableFromCSR(csr, graph.DirOut, graph.KnownMultigraph(false))
	if err != nil {
		return nil, err
	}
	vs := make([]int64, n)
	for i := range vs {
		vs[i] = int64(i)
	}
	return &graph.Subgraph{Graph: sg, InducedVertices: vs, InducedEdges: induced}, nil
}

// edgeCounts tallies the multiplicity of every (src, dst) pair.
func edgeCounts(g graph.Graph) (map[[2]int64]int64, error) {
	ea, err := g.Edges(graph.OrderEID)
	if err != nil {
		return nil, err
	}
	counts := make(map[[2]int64]int64, ea.Len())
	for i := 0; i < ea.Len(); i++ {
		counts[[2]int64{ea.Src[i], ea.Dst[i]}]++
	}
	return counts, nil
}

// ToBidirectedMutable returns a mutable graph in which every connected
// pair has the same number of edges in both directions: the larger of
// the two input multiplicities. Pairs are visited in ascending (u, v)
// order with u <= v, so the output edge numbering is deterministic.
func ToBidirectedMutable(g graph.Graph) (*graph.Mutable, error) {
	counts, err := edgeCounts(g)
	if err != nil {
		return nil, err
	}

	n := g.NumVertices()
	pairs := make(map[int64][]int64, n) // u -> sorted distinct v >= u
	addPair := func(a, b int64) {
		if a > b {
			a, b = b, a
		}
		pairs[a] = insertSorted(pairs[a], b)
	}
	for uv := range counts {
		addPair(uv[0], uv[1])
	}

	bg := graph.NewMutableWithVertices(n)
	for u := int64(0); u < n; u++ {
		for _, v := range pairs[u] {
			c := max64(counts[[2]int64{u, v}], counts[[2]int64{v, u}])
			for k := int64(0); k < c; k++ {
				if err := bg.AddEdge(u, v); err != nil {
					return nil, err
				}
			}
			if u == v {
				continue
			}
			for k := int64(0); k < c; k++ {
				if err := bg.AddEdge(v, u); err != nil {
					return nil, err
				}
			}
		}
	}
	return bg, nil
}

// ToBidirectedImmutable is the immutable counterpart of
// [ToBidirectedMutable]. Edges are emitted grouped by destination in
// ascending order, with each destination's distinct neighbors in
// predecessor-then-successor first-seen order.
func ToBidirectedImmutable(g graph.Graph) (*graph.Immutable, error) {
	counts, err := edgeCounts(g)
	if err != nil {
		return nil, err
	}

	n := g.NumVertices()
	var srcs, dsts []int64
	for u := int64(0); u < n; u++ {
		pred, err := g.Predecessors(u, 1)
		if err != nil {
			return nil, err
		}
		succ, err := g.Successors(u, 1)
		if err != nil {
			return nil, err
		}
		seen := make(map[int64]bool, len(pred)+len(succ))
		var nbrs []int64
		for _, v := range pred {
			if !seen[v] {
				seen[v] = true
				nbrs = append(nbrs, v)
			}
		}
		for _, v := range succ {
			if !seen[v] {
				seen[v] = true
				nbrs = append(nbrs, v)
			}
		}
		for _, v := range nbrs {
			c := max64(counts[[2]int64{u, v}], counts[[2]int64{v, u}])
			for k := int64(0); k < c; k++ {
				srcs = append(srcs, v)
				dsts = append(dsts, u)
			}
		}
	}
	return graph.NewImmutableFromCOO(n, srcs, dsts,
		graph.KnownMultigraph(g.IsMultigraph()))
}

func insertSorted(s []int64, v int64) []int64 {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := (lo + hi) / 2
		if s[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s) && s[lo] == v {
		return s
	}
	s = append(s, 0)
	copy(s[lo+1:], s[lo:])
	s[lo] = v
	return s
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
