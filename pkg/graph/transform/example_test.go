package transform_test

import (
	"fmt"

	"github.com/shardgraph/shardgraph/pkg/graph"
	"github.com/shardgraph/shardgraph/pkg/graph/transform"
)

func ExampleExpandIDs() {
	out, err := transform.ExpandIDs([]int64{7, 8, 9}, []int64{0, 2, 3, 5})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(out)
	// Output: [7 7 8 9 9]
}

func ExampleMapParentIDToSubgraphID() {
	// Position of each query id within the parent list, -1 if absent.
	fmt.Println(transform.MapParentIDToSubgraphID([]int64{5, 2, 9}, []int64{2, 9, 7}))
	// Output: [1 2 -1]
}

func ExampleSubgraphWithHalo() {
	// 1→0, 2→1, 3→2, 0→1; partition {0, 1} with a one-hop halo pulls
	// in node 2, the in-neighbor of 1.
	g, err := graph.NewImmutableFromCOO(4, []int64{1, 2, 3, 0}, []int64{0, 1, 2, 1})
	if err != nil {
		fmt.Println(err)
		return
	}
	halo, err := transform.SubgraphWithHalo(g, []int64{0, 1}, 1)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("nodes:", halo.InducedVertices)
	fmt.Println("inner:", halo.InnerNodes)
	// Output:
	// nodes: [0 1 2]
	// inner: [1 1 0]
}
