// Package kvstore implements a distributed tensor store for training
// state: named row-major float32 tensors partitioned across server
// processes, accessed by clients through push/pull messages over the
// transport layer.
package kvstore

import (
	"context"
	"sync"

	"github.com/shardgraph/shardgraph/pkg/errors"
)

// Store is the server-side tensor storage backend.
//
// Push accumulates: pushed rows are added to the stored rows, which is
// the aggregation distributed trainers need for gradients. Pull reads
// whole rows by id.
type Store interface {
	// Init creates a rows×cols tensor filled with fill. Re-initializing
	// an existing name is an INVALID_ARGUMENT error.
	Init(ctx context.Context, name string, rows, cols int64, fill float32) error
	// Push adds data, laid out as len(ids) rows of cols values, into
	// the identified rows.
	Push(ctx context.Context, name string, ids []int64, data []float32) error
	// Pull returns the identified rows, concatenated.
	Pull(ctx context.Context, name string, ids []int64) ([]float32, error)
	// Meta reports a tensor's dimensions.
	Meta(ctx context.Context, name string) (rows, cols int64, err error)
}

// MemoryStore is the in-process [Store].
type MemoryStore struct {
	mu      sync.RWMutex
	tensors map[string]*tensor
}

type tensor struct {
	rows, cols int64
	data       []float32
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tensors: map[string]*tensor{}}
}

func (s *MemoryStore) Init(_ context.Context, name string, rows, cols int64, fill float32) error {
	if rows <= 0 || cols <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "tensor %q needs positive dimensions", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tensors[name]; exists {
		return errors.New(errors.ErrCodeInvalidArgument, "tensor %q already initialized", name)
	}
	t := &tensor{rows: rows, cols: cols, data: make([]float32, rows*cols)}
	if fill != 0 {
		for i := range t.data {
			t.data[i] = fill
		}
	}
	s.tensors[name] = t
	return nil
}

func (s *MemoryStore) Push(_ context.Context, name string, ids []int64, data []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookup(name)
	if err != nil {
		return err
	}
	if int64(len(data)) != int64(len(ids))*t.cols {
		return errors.New(errors.ErrCodeInvalidArgument,
			"push of %d values for %d rows of %d columns", len(data), len(ids), t.cols)
	}
	for i, id := range ids {
		if id < 0 || id >= t.rows {
			return errors.New(errors.ErrCodeInvalidArgument, "row %d out of range for %q", id, name)
		}
		row := t.data[id*t.cols : (id+1)*t.cols]
		src := data[int64(i)*t.cols : int64(i+1)*t.cols]
		for j := range row {
			row[j] += src[j]
		}
	}
	return nil
}

func (s *MemoryStore) Pull(_ context.Context, name string, ids []int64) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]float32, 0, int64(len(ids))*t.cols)
	for _, id := range ids {
		if id < 0 || id >= t.rows {
			return nil, errors.New(errors.ErrCodeInvalidArgument, "row %d out of range for %q", id, name)
		}
		out = append(out, t.data[id*t.cols:(id+1)*t.cols]...)
	}
	return out, nil
}

func (s *MemoryStore) Meta(_ context.Context, name string) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.lookup(name)
	if err != nil {
		return 0, 0, err
	}
	return t.rows, t.cols, nil
}

func (s *MemoryStore) lookup(name string) (*tensor, error) {
	t, ok := s.tensors[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no tensor %q", name)
	}
	return t, nil
}
