package graph

// Subgraph is a graph carved out of a parent graph together with the
// mappings back into the parent's id spaces. The subgraph's own ids are
// dense: new node i is parent node InducedVertices[i], new edge j is
// parent edge InducedEdges[j].
type Subgraph struct {
	Graph Graph

	// InducedVertices maps subgraph node id to parent node id.
	InducedVertices []int64
	// InducedEdges maps subgraph edge id to parent edge id.
	InducedEdges []int64
}

// HaloSubgraph is a partition subgraph extended with halo nodes: the
// nodes within a hop radius of the partition's own node set. Masks
// record, per subgraph node and edge, whether it belongs to the
// partition proper (1) or to the halo (0).
type HaloSubgraph struct {
	Subgraph

	// InnerNodes[i] is 1 iff subgraph node i is in the seed set.
	InnerNodes []int64
	// InnerEdges[j] is 1 iff subgraph edge j was reached from a node in
	// the seed set.
	InnerEdges []int64
}
