package transform

import (
	"reflect"
	"testing"

	"github.com/shardgraph/shardgraph/pkg/errors"
)

func TestMapParentIDToSubgraphID(t *testing.T) {
	tests := []struct {
		name   string
		parent []int64
		query  []int64
		want   []int64
	}{
		{
			name:   "sorted parent",
			parent: []int64{10, 20, 30},
			query:  []int64{20, 30, 5},
			want:   []int64{1, 2, -1},
		},
		{
			name:   "unsorted parent",
			parent: []int64{30, 10, 20},
			query:  []int64{10, 30, 99},
			want:   []int64{1, 0, -1},
		},
		{
			name:   "empty parent",
			parent: nil,
			query:  []int64{1},
			want:   []int64{-1},
		},
		{
			name:   "empty query",
			parent: []int64{1, 2},
			query:  nil,
			want:   []int64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapParentIDToSubgraphID(tt.parent, tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MapParentIDToSubgraphID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpandIDs(t *testing.T) {
	got, err := ExpandIDs([]int64{7, 8, 9}, []int64{0, 2, 3, 5})
	if err != nil {
		t.Fatalf("ExpandIDs() error: %v", err)
	}
	if want := []int64{7, 7, 8, 9, 9}; !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandIDs() = %v, want %v", got, want)
	}
}

func TestExpandIDsZeroRun(t *testing.T) {
	got, err := ExpandIDs([]int64{1, 2}, []int64{0, 0, 3})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int64{2, 2, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandIDs() = %v, want %v", got, want)
	}
}

func TestExpandIDsErrors(t *testing.T) {
	if _, err := ExpandIDs([]int64{1}, []int64{0}); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("short offsets error = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := ExpandIDs([]int64{1, 2}, []int64{0, 3, 1}); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("decreasing offsets error = %v, want INVALID_ARGUMENT", err)
	}
}
