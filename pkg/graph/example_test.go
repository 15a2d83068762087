package graph_test

import (
	"fmt"

	"github.com/shardgraph/shardgraph/pkg/graph"
)

func ExampleNewMutableWithVertices() {
	g := graph.NewMutableWithVertices(3)
	_ = g.AddEdge(0, 1)
	_ = g.AddEdge(1, 2)
	_ = g.AddEdge(0, 1)

	fmt.Println("nodes:", g.NumVertices())
	fmt.Println("edges:", g.NumEdges())
	fmt.Println("multigraph:", g.IsMultigraph())
	// Output:
	// nodes: 3
	// edges: 3
	// multigraph: true
}

func ExampleNewImmutableFromCOO() {
	g, err := graph.NewImmutableFromCOO(4, []int64{0, 0, 1, 2}, []int64{1, 2, 3, 3})
	if err != nil {
		fmt.Println(err)
		return
	}

	succ, _ := g.Successors(0, 1)
	fmt.Println("successors of 0:", succ)
	fmt.Println("in-degree of 3:", g.InDegree(3))

	ea, _ := g.Edges(graph.OrderEID)
	fmt.Println("edges:", ea.Src, ea.Dst)
	// Output:
	// successors of 0: [1 2]
	// in-degree of 3: 2
	// edges: [0 0 1 2] [1 2 3 3]
}
