package graph

import "github.com/shardgraph/shardgraph/pkg/errors"

// edgeList is one adjacency row: parallel neighbor and edge-id slices
// in insertion order.
type edgeList struct {
	nbr []int64
	eid []int64
}

// Mutable is the adjacency-list graph index. It keeps a forward and a
// reverse adjacency row per node plus flat endpoint arrays indexed by
// edge id, so edge id i is the i-th inserted edge.
type Mutable struct {
	adj  []edgeList // adj[u] lists successors of u
	radj []edgeList // radj[v] lists predecessors of v
	src  []int64
	dst  []int64

	// multigraph flips to true the first time a duplicate (src, dst)
	// pair is inserted and never flips back.
	multigraph bool
}

var _ Graph = (*Mutable)(nil)

// NewMutable returns an empty mutable graph.
func NewMutable() *Mutable { return &Mutable{} }

// NewMutableWithVertices returns a mutable graph with n nodes and no
// edges.
func NewMutableWithVertices(n int64) *Mutable {
	g := &Mutable{}
	g.AddVertices(n) //nolint:errcheck // cannot fail for n >= 0
	return g
}

func (g *Mutable) Kind() Kind         { return KindMutable }
func (g *Mutable) IsMultigraph() bool { return g.multigraph }
func (g *Mutable) NumVertices() int64 { return int64(len(g.adj)) }
func (g *Mutable) NumEdges() int64    { return int64(len(g.src)) }

// AddVertices grows the node space by n isolated nodes.
func (g *Mutable) AddVertices(n int64) error {
	if n < 0 {
		return errNoVertex(n)
	}
	g.adj = append(g.adj, make([]edgeList, n)...)
	g.radj = append(g.radj, make([]edgeList, n)...)
	return nil
}

// AddEdge appends one edge src→dst. The new edge id is NumEdges before
// the call. Inserting a pair that already exists turns the graph into a
// multigraph.
func (g *Mutable) AddEdge(src, dst int64) error {
	if !g.HasVertex(src) {
		return errNoVertex(src)
	}
	if !g.HasVertex(dst) {
		return errNoVertex(dst)
	}
	if !g.multigraph && g.HasEdgeBetween(src, dst) {
		g.multigraph = true
	}
	eid := int64(len(g.src))
	g.adj[src].nbr = append(g.adj[src].nbr, dst)
	g.adj[src].eid = append(g.adj[src].eid, eid)
	g.radj[dst].nbr = append(g.radj[dst].nbr, src)
	g.radj[dst].eid = append(g.radj[dst].eid, eid)
	g.src = append(g.src, src)
	g.dst = append(g.dst, dst)
	return nil
}

// AddEdges appends edges pairwise from equal-length endpoint slices.
// On error the graph retains the edges added before the failing pair.
func (g *Mutable) AddEdges(src, dst []int64) error {
	if len(src) != len(dst) {
		return errors.New(errors.ErrCodeInvalidArgument,
			"endpoint arrays differ in length: %d vs %d", len(src), len(dst))
	}
	for i := range src {
		if err := g.AddEdge(src[i], dst[i]); err != nil {
			return err
		}
	}
	return nil
}

func (g *Mutable) HasVertex(v int64) bool {
	return v >= 0 && v < int64(len(g.adj))
}

func (g *Mutable) HasVertices(vs []int64) []bool {
	out := make([]bool, len(vs))
	for i, v := range vs {
		out[i] = g.HasVertex(v)
	}
	return out
}

func (g *Mutable) HasEdgeBetween(src, dst int64) bool {
	if !g.HasVertex(src) || !g.HasVertex(dst) {
		return false
	}
	// Scan the shorter of the two adjacency rows.
	if len(g.adj[src].nbr) <= len(g.radj[dst].nbr) {
		for _, w := range g.adj[src].nbr {
			if w == dst {
				return true
			}
		}
		return false
	}
	for _, u := range g.radj[dst].nbr {
		if u == src {
			return true
		}
	}
	return false
}

func (g *Mutable) HasEdgesBetween(src, dst []int64) ([]bool, error) {
	n, err := broadcastLens(len(src), len(dst))
	if err != nil {
		return nil, err
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = g.HasEdgeBetween(pick(src, i), pick(dst, i))
	}
	return out, nil
}

func (g *Mutable) Predecessors(v int64, radius int) ([]int64, error) {
	return g.hops(v, radius, func(u int64) []int64 { return g.radj[u].nbr })
}

func (g *Mutable) Successors(v int64, radius int) ([]int64, error) {
	return g.hops(v, radius, func(u int64) []int64 { return g.adj[u].nbr })
}

func (g *Mutable) hops(v int64, radius int, neigh func(int64) []int64) ([]int64, error) {
	if !g.HasVertex(v) {
		return nil, errNoVertex(v)
	}
	return hopNeighbors(v, radius, neigh)
}

func (g *Mutable) EdgeIDs(src, dst int64) ([]int64, error) {
	if !g.HasVertex(src) {
		return nil, errNoVertex(src)
	}
	if !g.HasVertex(dst) {
		return nil, errNoVertex(dst)
	}
	var ids []int64
	row := g.adj[src]
	for i, w := range row.nbr {
		if w == dst {
			ids = append(ids, row.eid[i])
		}
	}
	return ids, nil
}

func (g *Mutable) EdgeIDsBetween(src, dst []int64) (EdgeArray, error) {
	n, err := broadcastLens(len(src), len(dst))
	if err != nil {
		return EdgeArray{}, err
	}
	var out EdgeArray
	for i := 0; i < n; i++ {
		u, v := pick(src, i), pick(dst, i)
		ids, err := g.EdgeIDs(u, v)
		if err != nil {
			return EdgeArray{}, err
		}
		for _, id := range ids {
			out.Src = append(out.Src, u)
			out.Dst = append(out.Dst, v)
			out.ID = append(out.ID, id)
		}
	}
	return out, nil
}

func (g *Mutable) FindEdge(eid int64) (int64, int64, error) {
	if eid < 0 || eid >= int64(len(g.src)) {
		return 0, 0, errNoEdge(eid)
	}
	return g.src[eid], g.dst[eid], nil
}

func (g *Mutable) FindEdges(eids []int64) (EdgeArray, error) {
	out := EdgeArray{
		Src: make([]int64, len(eids)),
		Dst: make([]int64, len(eids)),
		ID:  make([]int64, len(eids)),
	}
	for i, e := range eids {
		s, d, err := g.FindEdge(e)
		if err != nil {
			return EdgeArray{}, err
		}
		out.Src[i], out.Dst[i], out.ID[i] = s, d, e
	}
	return out, nil
}

func (g *Mutable) InEdges(vs []int64) (EdgeArray, error) {
	var out EdgeArray
	for _, v := range vs {
		if !g.HasVertex(v) {
			return EdgeArray{}, errNoVertex(v)
		}
		row := g.radj[v]
		for i, u := range row.nbr {
			out.Src = append(out.Src, u)
			out.Dst = append(out.Dst, v)
			out.ID = append(out.ID, row.eid[i])
		}
	}
	return out, nil
}

func (g *Mutable) OutEdges(vs []int64) (EdgeArray, error) {
	var out EdgeArray
	for _, v := range vs {
		if !g.HasVertex(v) {
			return EdgeArray{}, errNoVertex(v)
		}
		row := g.adj[v]
		for i, w := range row.nbr {
			out.Src = append(out.Src, v)
			out.Dst = append(out.Dst, w)
			out.ID = append(out.ID, row.eid[i])
		}
	}
	return out, nil
}

func (g *Mutable) Edges(order Order) (EdgeArray, error) {
	switch order {
	case "", OrderEID:
		m := len(g.src)
		out := EdgeArray{
			Src: append([]int64(nil), g.src...),
			Dst: append([]int64(nil), g.dst...),
			ID:  make([]int64, m),
		}
		for i := range out.ID {
			out.ID[i] = int64(i)
		}
		return out, nil
	case OrderSrc:
		var out EdgeArray
		for u := range g.adj {
			row := g.adj[u]
			for i, w := range row.nbr {
				out.Src = append(out.Src, int64(u))
				out.Dst = append(out.Dst, w)
				out.ID = append(out.ID, row.eid[i])
			}
		}
		return out, nil
	default:
		return EdgeArray{}, errUnsupported("edge order "+string(order), g.Kind())
	}
}

func (g *Mutable) InDegree(v int64) int64  { return int64(len(g.radj[v].nbr)) }
func (g *Mutable) OutDegree(v int64) int64 { return int64(len(g.adj[v].nbr)) }

func (g *Mutable) InDegrees(vs []int64) ([]int64, error) {
	return g.degrees(vs, g.InDegree)
}

func (g *Mutable) OutDegrees(vs []int64) ([]int64, error) {
	return g.degrees(vs, g.OutDegree)
}

func (g *Mutable) degrees(vs []int64, deg func(int64) int64) ([]int64, error) {
	out := make([]int64, len(vs))
	for i, v := range vs {
		if !g.HasVertex(v) {
			return nil, errNoVertex(v)
		}
		out[i] = deg(v)
	}
	return out, nil
}

// VertexSubgraph induces the subgraph on vs. Edges are discovered by
// walking the out-rows of vs in order, so induced edge ids follow that
// traversal. The ids in vs must be distinct.
func (g *Mutable) VertexSubgraph(vs []int64) (*Subgraph, error) {
	oldToNew := make(map[int64]int64, len(vs))
	for i, v := range vs {
		if !g.HasVertex(v) {
			return nil, errNoVertex(v)
		}
		oldToNew[v] = int64(i)
	}

	sub := NewMutableWithVertices(int64(len(vs)))
	var induced []int64
	for i, v := range vs {
		row := g.adj[v]
		for j, w := range row.nbr {
			nw, ok := oldToNew[w]
			if !ok {
				continue
			}
			if err := sub.AddEdge(int64(i), nw); err != nil {
				return nil, err
			}
			induced = append(induced, row.eid[j])
		}
	}
	return &Subgraph{
		Graph:           sub,
		InducedVertices: append([]int64(nil), vs...),
		InducedEdges:    induced,
	}, nil
}

// EdgeSubgraph induces the subgraph on eids. Without preserveNodes,
// nodes are renumbered in the order their endpoints are first touched
// (source before destination).
func (g *Mutable) EdgeSubgraph(eids []int64, preserveNodes bool) (*Subgraph, error) {
	found, err := g.FindEdges(eids)
	if err != nil {
		return nil, err
	}

	if preserveNodes {
		sub := NewMutableWithVertices(g.NumVertices())
		if err := sub.AddEdges(found.Src, found.Dst); err != nil {
			return nil, err
		}
		vs := make([]int64, g.NumVertices())
		for i := range vs {
			vs[i] = int64(i)
		}
		return &Subgraph{
			Graph:           sub,
			InducedVertices: vs,
			InducedEdges:    append([]int64(nil), eids...),
		}, nil
	}

	oldToNew := make(map[int64]int64)
	var vs []int64
	touch := func(v int64) int64 {
		nv, ok := oldToNew[v]
		if !ok {
			nv = int64(len(vs))
			oldToNew[v] = nv
			vs = append(vs, v)
		}
		return nv
	}
	nsrc := make([]int64, len(eids))
	ndst := make([]int64, len(eids))
	for i := range eids {
		nsrc[i] = touch(found.Src[i])
		ndst[i] = touch(found.Dst[i])
	}
	sub := NewMutableWithVertices(int64(len(vs)))
	if err := sub.AddEdges(nsrc, ndst); err != nil {
		return nil, err
	}
	return &Subgraph{
		Graph:           sub,
		InducedVertices: vs,
		InducedEdges:    append([]int64(nil), eids...),
	}, nil
}

func (g *Mutable) Adjacency(transpose bool, format AdjFormat) (*Adjacency, error) {
	rows := g.adj
	if transpose {
		rows = g.radj
	}
	switch format {
	case AdjCSR:
		indptr := make([]int64, len(rows)+1)
		var indices, eids []int64
		for u, row := range rows {
			indptr[u+1] = indptr[u] + int64(len(row.nbr))
			indices = append(indices, row.nbr...)
			eids = append(eids, row.eid...)
		}
		return &Adjacency{Format: AdjCSR, Indptr: indptr, Indices: indices, EdgeIDs: eids}, nil
	case AdjCOO:
		m := len(g.src)
		a := &Adjacency{Format: AdjCOO, EdgeIDs: make([]int64, m)}
		for i := range a.EdgeIDs {
			a.EdgeIDs[i] = int64(i)
		}
		if transpose {
			a.Rows = append([]int64(nil), g.dst...)
			a.Cols = append([]int64(nil), g.src...)
		} else {
			a.Rows = append([]int64(nil), g.src...)
			a.Cols = append([]int64(nil), g.dst...)
		}
		return a, nil
	default:
		return nil, errUnsupported("adjacency format "+string(format), g.Kind())
	}
}

// SuccEdges exposes u's out-row as parallel neighbor and edge-id
// slices. The slices alias graph internals and must not be modified.
func (g *Mutable) SuccEdges(u int64) (nbr, eids []int64) {
	return g.adj[u].nbr, g.adj[u].eid
}

// PredEdges exposes v's in-row. The slices alias graph internals and
// must not be modified.
func (g *Mutable) PredEdges(v int64) (nbr, eids []int64) {
	return g.radj[v].nbr, g.radj[v].eid
}

// EdgeEndpoints exposes the flat endpoint arrays indexed by edge id.
// The slices alias graph internals and must not be modified.
func (g *Mutable) EdgeEndpoints() (src, dst []int64) { return g.src, g.dst }

// hopNeighbors walks at most radius hops from v and returns the
// distinct nodes discovered, in discovery order. v itself appears only
// if rediscovered through a cycle.
func hopNeighbors(v int64, radius int, neigh func(int64) []int64) ([]int64, error) {
	if radius < 1 {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "radius must be >= 1, got %d", radius)
	}
	seen := map[int64]bool{}
	frontier := []int64{v}
	var out []int64
	for hop := 0; hop < radius && len(frontier) > 0; hop++ {
		var next []int64
		for _, u := range frontier {
			for _, w := range neigh(u) {
				if seen[w] {
					continue
				}
				seen[w] = true
				out = append(out, w)
				next = append(next, w)
			}
		}
		frontier = next
	}
	return out, nil
}
