package graph

import "github.com/shardgraph/shardgraph/pkg/errors"

// Kind distinguishes the two graph index representations.
type Kind int

const (
	// KindMutable is the adjacency-list representation.
	KindMutable Kind = iota
	// KindImmutable is the CSR/COO representation.
	KindImmutable
)

func (k Kind) String() string {
	switch k {
	case KindMutable:
		return "mutable"
	case KindImmutable:
		return "immutable"
	default:
		return "unknown"
	}
}

// Order selects the edge enumeration order for [Graph.Edges].
type Order string

const (
	// OrderEID enumerates edges by ascending edge id. This is the
	// default and equals insertion order for mutable graphs.
	OrderEID Order = "eid"
	// OrderSrc enumerates edges grouped by source node in ascending
	// source order (the out-CSR traversal order).
	OrderSrc Order = "srcdst"
)

// AdjFormat selects the adjacency encoding returned by [Graph.Adjacency].
type AdjFormat string

const (
	AdjCSR AdjFormat = "csr"
	AdjCOO AdjFormat = "coo"
)

// EdgeArray is a set of edges as parallel (src, dst, id) triples.
type EdgeArray struct {
	Src []int64
	Dst []int64
	ID  []int64
}

// Len returns the number of edges in the array.
func (e EdgeArray) Len() int { return len(e.ID) }

// Adjacency is an adjacency-matrix view of a graph in CSR or COO form.
// For CSR, Indptr/Indices/EdgeIDs are set; for COO, Rows/Cols are set
// and the edge id of entry i is i's position in the parent's edge
// numbering, carried in EdgeIDs as well.
type Adjacency struct {
	Format  AdjFormat
	Indptr  []int64
	Indices []int64
	Rows    []int64
	Cols    []int64
	EdgeIDs []int64
}

// Graph is the common operation set of both index kinds.
//
// Mutation methods (AddVertices, AddEdge, AddEdges) succeed only on
// mutable graphs; immutable graphs return UNSUPPORTED_OPERATION before
// any side effect.
type Graph interface {
	Kind() Kind
	IsMultigraph() bool
	NumVertices() int64
	NumEdges() int64

	AddVertices(n int64) error
	AddEdge(src, dst int64) error
	AddEdges(src, dst []int64) error

	HasVertex(v int64) bool
	HasVertices(vs []int64) []bool
	HasEdgeBetween(src, dst int64) bool
	HasEdgesBetween(src, dst []int64) ([]bool, error)

	// Predecessors and Successors return the distinct nodes reachable
	// against/along edge direction within the given radius (>= 1), in
	// first-discovered order.
	Predecessors(v int64, radius int) ([]int64, error)
	Successors(v int64, radius int) ([]int64, error)

	// EdgeIDs returns the ids of all parallel edges src→dst, oldest
	// first. Empty if there is no such edge.
	EdgeIDs(src, dst int64) ([]int64, error)
	// EdgeIDsBetween is the vectorized form of EdgeIDs with
	// broadcasting: src and dst must have equal length, or one of them
	// length one.
	EdgeIDsBetween(src, dst []int64) (EdgeArray, error)

	FindEdge(eid int64) (src, dst int64, err error)
	FindEdges(eids []int64) (EdgeArray, error)

	// InEdges and OutEdges enumerate the edges incident to each given
	// node, in the order the nodes were given.
	InEdges(vs []int64) (EdgeArray, error)
	OutEdges(vs []int64) (EdgeArray, error)
	Edges(order Order) (EdgeArray, error)

	InDegree(v int64) int64
	OutDegree(v int64) int64
	InDegrees(vs []int64) ([]int64, error)
	OutDegrees(vs []int64) ([]int64, error)

	// VertexSubgraph induces on exactly the given node set: an edge
	// survives iff both endpoints are in the set. New node i is vs[i].
	VertexSubgraph(vs []int64) (*Subgraph, error)
	// EdgeSubgraph induces on the given edge set. With preserveNodes
	// the node space is kept intact; otherwise only touched endpoints
	// survive, renumbered in first-touch order.
	EdgeSubgraph(eids []int64, preserveNodes bool) (*Subgraph, error)

	// Adjacency returns the adjacency matrix. For CSR, transpose=false
	// yields rows keyed by source (out-CSR) and transpose=true rows
	// keyed by destination (in-CSR).
	Adjacency(transpose bool, format AdjFormat) (*Adjacency, error)
}

func errUnsupported(op string, k Kind) error {
	return errors.New(errors.ErrCodeUnsupportedOp, "%s is not supported on %s graphs", op, k)
}

func errNoVertex(v int64) error {
	return errors.New(errors.ErrCodeInvalidArgument, "invalid vertex id %d", v)
}

func errNoEdge(e int64) error {
	return errors.New(errors.ErrCodeInvalidArgument, "invalid edge id %d", e)
}

// broadcastLens validates the broadcasting contract used by the paired
// lookups: equal lengths, or one side of length one.
func broadcastLens(a, b int) (int, error) {
	switch {
	case a == b:
		return a, nil
	case a == 1:
		return b, nil
	case b == 1:
		return a, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidArgument,
			"cannot broadcast id arrays of length %d and %d", a, b)
	}
}

func pick(s []int64, i int) int64 {
	if len(s) == 1 {
		return s[0]
	}
	return s[i]
}
