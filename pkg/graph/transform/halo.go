package transform

import (
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/graph"
)

// SubgraphWithHalo extracts the subgraph needed to compute numHops
// rounds of message passing for the seed nodes: the seeds themselves
// plus every node reachable against edge direction within numHops, with
// all in-edges discovered along the way. An edge is inner iff its
// source is a seed; a node is inner iff it is a seed. Subgraph node ids
// preserve the relative order of parent ids.
func SubgraphWithHalo(g graph.Graph, seeds []int64, numHops int) (*graph.HaloSubgraph, error) {
	if numHops < 1 {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "numHops must be >= 1, got %d", numHops)
	}

	inner := make(map[int64]bool, len(seeds))
	for _, s := range seeds {
		inner[s] = true
	}
	// all maps every reached node to its inner flag.
	all := make(map[int64]bool, len(seeds))
	for _, s := range seeds {
		all[s] = true
	}

	var (
		edgeSrc, edgeDst, edgeEID []int64
		innerEdges                []int64
	)
	frontier := seeds
	for hop := 0; hop < numHops && len(frontier) > 0; hop++ {
		in, err := g.InEdges(frontier)
		if err != nil {
			return nil, err
		}
		var next []int64
		for i := 0; i < in.Len(); i++ {
			s := in.Src[i]
			edgeSrc = append(edgeSrc, s)
			edgeDst = append(edgeDst, in.Dst[i])
			edgeEID = append(edgeEID, in.ID[i])
			if hop == 0 && inner[s] {
				innerEdges = append(innerEdges, 1)
			} else {
				innerEdges = append(innerEdges, 0)
			}
			if _, seen := all[s]; !seen {
				all[s] = false
				next = append(next, s)
			}
		}
		frontier = next
	}

	// Renumber so that parent id order is preserved.
	oldIDs := make([]int64, 0, len(all))
	for v := range all {
		oldIDs = append(oldIDs, v)
	}
	sort.Slice(oldIDs, func(i, j int) bool { return oldIDs[i] < oldIDs[j] })
	oldToNew := make(map[int64]int64, len(oldIDs))
	for i, v := range oldIDs {
		oldToNew[v] = int64(i)
	}

	newSrc := make([]int64, len(edgeSrc))
	newDst := make([]int64, len(edgeDst))
	for i := range edgeSrc {
		newSrc[i] = oldToNew[edgeSrc[i]]
		newDst[i] = oldToNew[edgeDst[i]]
	}
	innerNodes := make([]int64, len(oldIDs))
	for i, v := range oldIDs {
		if all[v] {
			innerNodes[i] = 1
		}
	}

	sg, err := graph.NewImmutableFromCOO(int64(len(oldIDs)), newSrc, newDst)
	if err != nil {
		return nil, err
	}
	return &graph.HaloSubgraph{
		Subgraph: graph.Subgraph{
			Graph:           sg,
			InducedVertices: oldIDs,
			InducedEdges:    edgeEID,
		},
		InnerNodes: innerNodes,
		InnerEdges: innerEdges,
	}, nil
}

// PartitionWithHalo groups nodes by their partition assignment and
// extracts each partition's halo subgraph concurrently. nodeParts[v] is
// the partition id of node v; the result maps partition id to its
// subgraph.
func PartitionWithHalo(g *graph.Immutable, nodeParts []int64, numHops int) (map[int64]*graph.HaloSubgraph, error) {
	if int64(len(nodeParts)) != g.NumVertices() {
		return nil, errors.New(errors.ErrCodeInvalidArgument,
			"%d assignments for %d nodes", len(nodeParts), g.NumVertices())
	}

	parts := make(map[int64][]int64)
	for v, p := range nodeParts {
		parts[p] = append(parts[p], int64(v))
	}

	// Extraction walks in-edges only. Materialize the in-CSR up front
	// so the workers below never race on the lazy builder.
	g.InCSR()

	var (
		mu      sync.Mutex
		results = make(map[int64]*graph.HaloSubgraph, len(parts))
		eg      errgroup.Group
	)
	for partID, nodes := range parts {
		eg.Go(func() error {
			sub, err := SubgraphWithHalo(g, nodes, numHops)
			if err != nil {
				code := errors.GetCode(err)
				if code == "" {
					code = errors.ErrCodeInternal
				}
				return errors.Wrap(code, err, "partition %d", partID)
			}
			mu.Lock()
			results[partID] = sub
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
