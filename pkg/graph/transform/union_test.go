package transform

import (
	"reflect"
	"testing"

	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/graph"
)

func triangle(t *testing.T, kind graph.Kind) graph.Graph {
	t.Helper()
	src := []int64{0, 1, 2}
	dst := []int64{1, 2, 0}
	if kind == graph.KindMutable {
		g := graph.NewMutableWithVertices(3)
		if err := g.AddEdges(src, dst); err != nil {
			t.Fatal(err)
		}
		return g
	}
	return immutableFromCOO(t, 3, src, dst)
}

func TestDisjointUnion(t *testing.T) {
	for _, kind := range []graph.Kind{graph.KindMutable, graph.KindImmutable} {
		t.Run(kind.String(), func(t *testing.T) {
			u, err := DisjointUnion([]graph.Graph{triangle(t, kind), triangle(t, kind)})
			if err != nil {
				t.Fatalf("DisjointUnion() error: %v", err)
			}
			if u.Kind() != kind {
				t.Errorf("union kind = %v, want %v", u.Kind(), kind)
			}
			if u.NumVertices() != 6 || u.NumEdges() != 6 {
				t.Fatalf("union has %d nodes, %d edges, want 6, 6", u.NumVertices(), u.NumEdges())
			}
			// The second copy is shifted by the first copy's node count.
			if !u.HasEdgeBetween(3, 4) || !u.HasEdgeBetween(5, 3) {
				t.Error("second copy's edges not rebased")
			}
			if u.HasEdgeBetween(2, 3) {
				t.Error("union connected the copies")
			}
		})
	}
}

func TestDisjointUnionErrors(t *testing.T) {
	if _, err := DisjointUnion(nil); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("empty union error = %v, want INVALID_ARGUMENT", err)
	}
	mixed := []graph.Graph{triangle(t, graph.KindMutable), triangle(t, graph.KindImmutable)}
	if _, err := DisjointUnion(mixed); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("mixed-kind union error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestUnionPartitionRoundTrip(t *testing.T) {
	for _, kind := range []graph.Kind{graph.KindMutable, graph.KindImmutable} {
		t.Run(kind.String(), func(t *testing.T) {
			a, b := triangle(t, kind), triangle(t, kind)
			u, err := DisjointUnion([]graph.Graph{a, b})
			if err != nil {
				t.Fatal(err)
			}
			parts, err := DisjointPartitionByNum(u, 2)
			if err != nil {
				t.Fatalf("DisjointPartitionByNum() error: %v", err)
			}
			if len(parts) != 2 {
				t.Fatalf("got %d parts, want 2", len(parts))
			}
			want := edgesByID(t, a)
			for i, p := range parts {
				got := edgesByID(t, p)
				if !reflect.DeepEqual(got.Src, want.Src) || !reflect.DeepEqual(got.Dst, want.Dst) {
					t.Errorf("part %d edges = %v→%v, want %v→%v", i, got.Src, got.Dst, want.Src, want.Dst)
				}
			}
		})
	}
}

func TestDisjointPartitionBySizes(t *testing.T) {
	u, err := DisjointUnion([]graph.Graph{
		triangle(t, graph.KindImmutable),
		immutableFromCOO(t, 2, []int64{0}, []int64{1}),
	})
	if err != nil {
		t.Fatal(err)
	}
	parts, err := DisjointPartitionBySizes(u, []int64{3, 2})
	if err != nil {
		t.Fatalf("DisjointPartitionBySizes() error: %v", err)
	}
	if parts[0].NumVertices() != 3 || parts[0].NumEdges() != 3 {
		t.Errorf("part 0 has %d nodes, %d edges, want 3, 3", parts[0].NumVertices(), parts[0].NumEdges())
	}
	if parts[1].NumVertices() != 2 || parts[1].NumEdges() != 1 {
		t.Errorf("part 1 has %d nodes, %d edges, want 2, 1", parts[1].NumVertices(), parts[1].NumEdges())
	}
	if !parts[1].HasEdgeBetween(0, 1) {
		t.Error("part 1 lost its edge")
	}
}

func TestDisjointPartitionErrors(t *testing.T) {
	g := triangle(t, graph.KindImmutable)

	if _, err := DisjointPartitionByNum(g, 2); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("uneven split error = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := DisjointPartitionBySizes(g, []int64{1, 1}); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("bad sizes sum error = %v, want INVALID_ARGUMENT", err)
	}
	// The triangle's wrap-around edge crosses any split.
	if _, err := DisjointPartitionBySizes(g, []int64{2, 1}); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("crossing edge error = %v, want INVALID_ARGUMENT", err)
	}
}
