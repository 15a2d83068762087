package graph

import (
	"sync"

	"github.com/shardgraph/shardgraph/pkg/errors"
)

// CSR is one compressed-sparse-row view of a graph: Indptr has
// NumVertices+1 monotonically non-decreasing offsets, and the entries
// of row u live at Indices[Indptr[u]:Indptr[u+1]] with their edge ids
// at the same positions in EdgeIDs. Edge ids are a permutation of
// [0, NumEdges).
type CSR struct {
	Indptr  []int64
	Indices []int64
	EdgeIDs []int64
}

// NumVertices returns the number of rows.
func (c *CSR) NumVertices() int64 { return int64(len(c.Indptr)) - 1 }

// NumEdges returns the number of stored entries.
func (c *CSR) NumEdges() int64 { return int64(len(c.Indices)) }

// Row returns row u's column and edge-id slices. The slices alias the
// CSR arrays and must not be modified.
func (c *CSR) Row(u int64) (cols, eids []int64) {
	lo, hi := c.Indptr[u], c.Indptr[u+1]
	return c.Indices[lo:hi], c.EdgeIDs[lo:hi]
}

// Validate checks the structural invariants: offset array shape,
// monotonic offsets, column ids within range, and edge ids forming a
// permutation of [0, NumEdges).
func (c *CSR) Validate() error {
	if len(c.Indptr) == 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "csr indptr is empty")
	}
	if c.Indptr[0] != 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "csr indptr must start at 0, got %d", c.Indptr[0])
	}
	n := c.NumVertices()
	m := c.NumEdges()
	if int64(len(c.EdgeIDs)) != m {
		return errors.New(errors.ErrCodeInvalidArgument,
			"csr has %d indices but %d edge ids", m, len(c.EdgeIDs))
	}
	for i := int64(0); i < n; i++ {
		if c.Indptr[i] > c.Indptr[i+1] {
			return errors.New(errors.ErrCodeInvalidArgument,
				"csr indptr decreases at row %d: %d > %d", i, c.Indptr[i], c.Indptr[i+1])
		}
	}
	if c.Indptr[n] != m {
		return errors.New(errors.ErrCodeInvalidArgument,
			"csr indptr ends at %d, want %d", c.Indptr[n], m)
	}
	seen := make([]bool, m)
	for i := int64(0); i < m; i++ {
		if v := c.Indices[i]; v < 0 || v >= n {
			return errors.New(errors.ErrCodeInvalidArgument, "csr column %d out of range", v)
		}
		e := c.EdgeIDs[i]
		if e < 0 || e >= m || seen[e] {
			return errors.New(errors.ErrCodeInvalidArgument,
				"csr edge ids are not a permutation of [0, %d)", m)
		}
		seen[e] = true
	}
	return nil
}

// Direction says which endpoint a CSR's rows are keyed by.
type Direction int

const (
	// DirIn keys rows by destination: row v lists v's predecessors.
	DirIn Direction = iota
	// DirOut keys rows by source: row u lists u's successors.
	DirOut
)

// Immutable is the CSR graph index. It holds up to three views of the
// same edge set: in-CSR, out-CSR, and COO endpoint arrays indexed by
// edge id. Whichever views the constructor did not receive are built
// lazily on first use.
type Immutable struct {
	n int64
	m int64

	in  *CSR
	out *CSR
	// cooSrc[e] and cooDst[e] are the endpoints of edge e.
	cooSrc []int64
	cooDst []int64

	inOnce  sync.Once
	outOnce sync.Once
	cooOnce sync.Once

	multiOnce  sync.Once
	multi      bool
	multiKnown bool
}

var _ Graph = (*Immutable)(nil)

// ImmutableOption configures construction of an [Immutable].
type ImmutableOption func(*Immutable)

// KnownMultigraph records the multigraph flag up front, skipping the
// duplicate-edge scan that IsMultigraph otherwise runs on first call.
func KnownMultigraph(multi bool) ImmutableOption {
	return func(g *Immutable) {
		g.multi = multi
		g.multiKnown = true
	}
}

// NewImmutableFromCSR builds an immutable graph around one CSR view.
// The CSR arrays are aliased, not copied, and must not be modified
// afterwards.
func NewImmutableFromCSR(csr *CSR, dir Direction, opts ...ImmutableOption) (*Immutable, error) {
	if err := csr.Validate(); err != nil {
		return nil, err
	}
	g := &Immutable{n: csr.NumVertices(), m: csr.NumEdges()}
	if dir == DirIn {
		g.in = csr
	} else {
		g.out = csr
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NewImmutableFromCOO builds an immutable graph from endpoint arrays,
// where edge i has id i. The arrays are aliased, not copied.
func NewImmutableFromCOO(numVertices int64, src, dst []int64, opts ...ImmutableOption) (*Immutable, error) {
	if len(src) != len(dst) {
		return nil, errors.New(errors.ErrCodeInvalidArgument,
			"endpoint arrays differ in length: %d vs %d", len(src), len(dst))
	}
	for i := range src {
		if src[i] < 0 || src[i] >= numVertices {
			return nil, errNoVertex(src[i])
		}
		if dst[i] < 0 || dst[i] >= numVertices {
			return nil, errNoVertex(dst[i])
		}
	}
	g := &Immutable{n: numVertices, m: int64(len(src)), cooSrc: src, cooDst: dst}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Immutable) Kind() Kind         { return KindImmutable }
func (g *Immutable) NumVertices() int64 { return g.n }
func (g *Immutable) NumEdges() int64    { return g.m }

// IsMultigraph reports whether any (src, dst) pair repeats. When the
// flag was not supplied at construction it is inferred once by
// scanning a CSR view and cached.
func (g *Immutable) IsMultigraph() bool {
	g.multiOnce.Do(func() {
		if g.multiKnown {
			return
		}
		csr := g.anyCSR()
		for u := int64(0); u < g.n; u++ {
			cols, _ := csr.Row(u)
			if len(cols) < 2 {
				continue
			}
			seen := make(map[int64]bool, len(cols))
			for _, v := range cols {
				if seen[v] {
					g.multi = true
					return
				}
				seen[v] = true
			}
		}
	})
	return g.multi
}

func (g *Immutable) AddVertices(int64) error   { return errUnsupported("AddVertices", g.Kind()) }
func (g *Immutable) AddEdge(_, _ int64) error  { return errUnsupported("AddEdge", g.Kind()) }
func (g *Immutable) AddEdges(_, _ []int64) error {
	return errUnsupported("AddEdges", g.Kind())
}

// InCSR returns the destination-keyed view, building it on first call.
// Within a row, entries are ordered by ascending edge id when the view
// is derived rather than supplied.
func (g *Immutable) InCSR() *CSR {
	g.inOnce.Do(func() {
		if g.in != nil {
			return
		}
		src, dst := g.COO()
		g.in = csrFromCOO(g.n, dst, src)
	})
	return g.in
}

// OutCSR returns the source-keyed view, building it on first call.
func (g *Immutable) OutCSR() *CSR {
	g.outOnce.Do(func() {
		if g.out != nil {
			return
		}
		src, dst := g.COO()
		g.out = csrFromCOO(g.n, src, dst)
	})
	return g.out
}

// COO returns the endpoint arrays indexed by edge id, building them on
// first call. The slices alias graph internals and must not be
// modified.
func (g *Immutable) COO() (src, dst []int64) {
	g.cooOnce.Do(func() {
		if g.cooSrc != nil || g.m == 0 {
			if g.cooSrc == nil {
				g.cooSrc = []int64{}
				g.cooDst = []int64{}
			}
			return
		}
		g.cooSrc = make([]int64, g.m)
		g.cooDst = make([]int64, g.m)
		if g.out != nil {
			for u := int64(0); u < g.n; u++ {
				cols, eids := g.out.Row(u)
				for i, v := range cols {
					g.cooSrc[eids[i]] = u
					g.cooDst[eids[i]] = v
				}
			}
			return
		}
		for v := int64(0); v < g.n; v++ {
			cols, eids := g.in.Row(v)
			for i, u := range cols {
				g.cooSrc[eids[i]] = u
				g.cooDst[eids[i]] = v
			}
		}
	})
	return g.cooSrc, g.cooDst
}

// anyCSR returns whichever CSR view is cheapest to obtain.
func (g *Immutable) anyCSR() *CSR {
	if g.out != nil {
		return g.out
	}
	if g.in != nil {
		return g.in
	}
	return g.OutCSR()
}

func (g *Immutable) HasVertex(v int64) bool { return v >= 0 && v < g.n }

func (g *Immutable) HasVertices(vs []int64) []bool {
	out := make([]bool, len(vs))
	for i, v := range vs {
		out[i] = g.HasVertex(v)
	}
	return out
}

func (g *Immutable) HasEdgeBetween(src, dst int64) bool {
	if !g.HasVertex(src) || !g.HasVertex(dst) {
		return false
	}
	cols, _ := g.OutCSR().Row(src)
	for _, v := range cols {
		if v == dst {
			return true
		}
	}
	return false
}

func (g *Immutable) HasEdgesBetween(src, dst []int64) ([]bool, error) {
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

func (g *Immutable) Predecessors(v int64, radius int) ([]int64, error) {
	if !g.HasVertex(v) {
		return nil, errNoVertex(v)
	}
	in := g.InCSR()
	return hopNeighbors(v, radius, func(u int64) []int64 {
		cols, _ := in.Row(u)
		return cols
	})
}

func (g *Immutable) Successors(v int64, radius int) ([]int64, error) {
	if !g.HasVertex(v) {
		return nil, errNoVertex(v)
	}
	out := g.OutCSR()
	return hopNeighbors(v, radius, func(u int64) []int64 {
		cols, _ := out.Row(u)
		return cols
	})
}

func (g *Immutable) EdgeIDs(src, dst int64) ([]int64, error) {
	if !g.HasVertex(src) {
		return nil, errNoVertex(src)
	}
	if !g.HasVertex(dst) {
		return nil, errNoVertex(dst)
	}
	cols, eids := g.OutCSR().Row(src)
	var ids []int64
	for i, v := range cols {
		if v == dst {
			ids = append(ids, eids[i])
		}
	}
	return ids, nil
}

func (g *Immutable) EdgeIDsBetween(src, dst []int64) (EdgeArray, error) {
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

func (g *Immutable) FindEdge(eid int64) (int64, int64, error) {
	if eid < 0 || eid >= g.m {
		return 0, 0, errNoEdge(eid)
	}
	src, dst := g.COO()
	return src[eid], dst[eid], nil
}

func (g *Immutable) FindEdges(eids []int64) (EdgeArray, error) {
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

func (g *Immutable) InEdges(vs []int64) (EdgeArray, error) {
	in := g.InCSR()
	var out EdgeArray
	for _, v := range vs {
		if !g.HasVertex(v) {
			return EdgeArray{}, errNoVertex(v)
		}
		cols, eids := in.Row(v)
		for i, u := range cols {
			out.Src = append(out.Src, u)
			out.Dst = append(out.Dst, v)
			out.ID = append(out.ID, eids[i])
		}
	}
	return out, nil
}

func (g *Immutable) OutEdges(vs []int64) (EdgeArray, error) {
	ocsr := g.OutCSR()
	var out EdgeArray
	for _, v := range vs {
		if !g.HasVertex(v) {
			return EdgeArray{}, errNoVertex(v)
		}
		cols, eids := ocsr.Row(v)
		for i, w := range cols {
			out.Src = append(out.Src, v)
			out.Dst = append(out.Dst, w)
			out.ID = append(out.ID, eids[i])
		}
	}
	return out, nil
}

func (g *Immutable) Edges(order Order) (EdgeArray, error) {
	switch order {
	case "", OrderEID:
		src, dst := g.COO()
		out := EdgeArray{
			Src: append([]int64(nil), src...),
			Dst: append([]int64(nil), dst...),
			ID:  make([]int64, g.m),
		}
		for i := range out.ID {
			out.ID[i] = int64(i)
		}
		return out, nil
	case OrderSrc:
		ocsr := g.OutCSR()
		var out EdgeArray
		for u := int64(0); u < g.n; u++ {
			cols, eids := ocsr.Row(u)
			for i, w := range cols {
				out.Src = append(out.Src, u)
				out.Dst = append(out.Dst, w)
				out.ID = append(out.ID, eids[i])
			}
		}
		return out, nil
	default:
		return EdgeArray{}, errUnsupported("edge order "+string(order), g.Kind())
	}
}

func (g *Immutable) InDegree(v int64) int64 {
	in := g.InCSR()
	return in.Indptr[v+1] - in.Indptr[v]
}

func (g *Immutable) OutDegree(v int64) int64 {
	out := g.OutCSR()
	return out.Indptr[v+1] - out.Indptr[v]
}

func (g *Immutable) InDegrees(vs []int64) ([]int64, error) {
	g.InCSR()
	return g.degrees(vs, g.InDegree)
}

func (g *Immutable) OutDegrees(vs []int64) ([]int64, error) {
	g.OutCSR()
	return g.degrees(vs, g.OutDegree)
}

func (g *Immutable) degrees(vs []int64, deg func(int64) int64) ([]int64, error) {
	out := make([]int64, len(vs))
	for i, v := range vs {
		if !g.HasVertex(v) {
			return nil, errNoVertex(v)
		}
		out[i] = deg(v)
	}
	return out, nil
}

// VertexSubgraph induces on vs by slicing the out-CSR: row i of the
// subgraph keeps the entries of parent row vs[i] whose destination is
// also in vs. The ids in vs must be distinct.
func (g *Immutable) VertexSubgraph(vs []int64) (*Subgraph, error) {
	oldToNew := make(map[int64]int64, len(vs))
	for i, v := range vs {
		if !g.HasVertex(v) {
			return nil, errNoVertex(v)
		}
		oldToNew[v] = int64(i)
	}

	ocsr := g.OutCSR()
	sub := &CSR{Indptr: make([]int64, len(vs)+1)}
	var induced []int64
	for i, v := range vs {
		cols, eids := ocsr.Row(v)
		for j, w := range cols {
			nw, ok := oldToNew[w]
			if !ok {
				continue
			}
			sub.Indices = append(sub.Indices, nw)
			sub.EdgeIDs = append(sub.EdgeIDs, int64(len(induced)))
			induced = append(induced, eids[j])
		}
		sub.Indptr[i+1] = int64(len(sub.Indices))
	}

	opts := g.inheritNonMulti()
	sg, err := NewImmutableFromCSR(sub, DirOut, opts...)
	if err != nil {
		return nil, err
	}
	return &Subgraph{
		Graph:           sg,
		InducedVertices: append([]int64(nil), vs...),
		InducedEdges:    induced,
	}, nil
}

// EdgeSubgraph induces on eids. Without preserveNodes, nodes are
// renumbered in the order their endpoints are first touched.
func (g *Immutable) EdgeSubgraph(eids []int64, preserveNodes bool) (*Subgraph, error) {
	found, err := g.FindEdges(eids)
	if err != nil {
		return nil, err
	}

	var (
		vs   []int64
		nsrc = make([]int64, len(eids))
		ndst = make([]int64, len(eids))
	)
	if preserveNodes {
		vs = make([]int64, g.n)
		for i := range vs {
			vs[i] = int64(i)
		}
		copy(nsrc, found.Src)
		copy(ndst, found.Dst)
	} else {
		oldToNew := make(map[int64]int64)
		touch := func(v int64) int64 {
			nv, ok := oldToNew[v]
			if !ok {
				nv = int64(len(vs))
				oldToNew[v] = nv
				vs = append(vs, v)
			}
			return nv
		}
		for i := range eids {
			nsrc[i] = touch(found.Src[i])
			ndst[i] = touch(found.Dst[i])
		}
	}

	sg, err := NewImmutableFromCOO(int64(len(vs)), nsrc, ndst, g.inheritNonMulti()...)
	if err != nil {
		return nil, err
	}
	return &Subgraph{
		Graph:           sg,
		InducedVertices: vs,
		InducedEdges:    append([]int64(nil), eids...),
	}, nil
}

// Reverse returns the graph with every edge flipped, keeping edge ids.
// Views are shared rather than copied: the receiver's in-CSR becomes
// the result's out-CSR and vice versa, so nothing is materialized.
// The receiver must not be mid-construction on another goroutine.
func (g *Immutable) Reverse() *Immutable {
	return &Immutable{
		n:          g.n,
		m:          g.m,
		in:         g.out,
		out:        g.in,
		cooSrc:     g.cooDst,
		cooDst:     g.cooSrc,
		multi:      g.multi,
		multiKnown: g.multiKnown,
	}
}

// inheritNonMulti propagates a known simple-graph flag to derived
// graphs. A subgraph of a simple graph is simple; a subgraph of a
// multigraph may or may not be, so that case stays unknown.
func (g *Immutable) inheritNonMulti() []ImmutableOption {
	if g.multiKnown && !g.multi {
		return []ImmutableOption{KnownMultigraph(false)}
	}
	return nil
}

func (g *Immutable) Adjacency(transpose bool, format AdjFormat) (*Adjacency, error) {
	switch format {
	case AdjCSR:
		csr := g.OutCSR()
		if transpose {
			csr = g.InCSR()
		}
		return &Adjacency{
			Format:  AdjCSR,
			Indptr:  csr.Indptr,
			Indices: csr.Indices,
			EdgeIDs: csr.EdgeIDs,
		}, nil
	case AdjCOO:
		src, dst := g.COO()
		a := &Adjacency{Format: AdjCOO, EdgeIDs: make([]int64, g.m)}
		for i := range a.EdgeIDs {
			a.EdgeIDs[i] = int64(i)
		}
		if transpose {
			a.Rows, a.Cols = dst, src
		} else {
			a.Rows, a.Cols = src, dst
		}
		return a, nil
	default:
		return nil, errUnsupported("adjacency format "+string(format), g.Kind())
	}
}

// csrFromCOO builds a CSR keyed by keys using a stable counting sort,
// so within each row entries appear in ascending edge-id order.
func csrFromCOO(n int64, keys, vals []int64) *CSR {
	csr := &CSR{
		Indptr:  make([]int64, n+1),
		Indices: make([]int64, len(keys)),
		EdgeIDs: make([]int64, len(keys)),
	}
	for _, k := range keys {
		csr.Indptr[k+1]++
	}
	for i := int64(0); i < n; i++ {
		csr.Indptr[i+1] += csr.Indptr[i]
	}
	next := append([]int64(nil), csr.Indptr[:n]...)
	for e, k := range keys {
		p := next[k]
		csr.Indices[p] = vals[e]
		csr.EdgeIDs[p] = int64(e)
		next[k]++
	}
	return csr
}
