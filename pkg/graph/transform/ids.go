package transform

import (
	"sort"

	"github.com/shardgraph/shardgraph/pkg/errors"
)

// MapParentIDToSubgraphID translates parent-graph node ids into the id
// space of a subgraph described by its induced-vertex array: query ids
// absent from parent map to -1. A sorted parent array is answered with
// binary search; otherwise a hash index is built once.
func MapParentIDToSubgraphID(parent, query []int64) []int64 {
	out := make([]int64, len(query))

	if sort.SliceIsSorted(parent, func(i, j int) bool { return parent[i] < parent[j] }) {
		for i, q := range query {
			j := sort.Search(len(parent), func(k int) bool { return parent[k] >= q })
			if j < len(parent) && parent[j] == q {
				out[i] = int64(j)
			} else {
				out[i] = -1
			}
		}
		return out
	}

	index := make(map[int64]int64, len(parent))
	for i, p := range parent {
		index[p] = int64(i)
	}
	for i, q := range query {
		if j, ok := index[q]; ok {
			out[i] = j
		} else {
			out[i] = -1
		}
	}
	return out
}

// ExpandIDs repeats ids[i] offsets[i+1]-offsets[i] times, producing an
// array of length offsets[len(ids)]. offsets must have one more entry
// than ids and be non-decreasing.
func ExpandIDs(ids, offsets []int64) ([]int64, error) {
	if len(offsets) != len(ids)+1 {
		return nil, errors.New(errors.ErrCodeInvalidArgument,
			"offsets has %d entries, want %d", len(offsets), len(ids)+1)
	}
	out := make([]int64, 0, offsets[len(offsets)-1])
	for i, id := range ids {
		run := offsets[i+1] - offsets[i]
		if run < 0 {
			return nil, errors.New(errors.ErrCodeInvalidArgument,
				"offsets decrease at %d: %d > %d", i, offsets[i], offsets[i+1])
		}
		for j := int64(0); j < run; j++ {
			out = append(out, id)
		}
	}
	return out, nil
}
