package kvstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"

	"github.com/shardgraph/shardgraph/pkg/errors"
)

// RedisStore is a [Store] backed by a Redis instance, for server
// processes that need tensor state to outlive a restart. Each tensor
// keeps a metadata hash plus one key per row holding the row's float32
// values in little-endian bytes.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis with the given options.
func NewRedisStore(opts *redis.Options) *RedisStore {
	return &RedisStore{rdb: redis.NewClient(opts)}
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error { return s.rdb.Close() }

func metaKey(name string) string          { return "tensor:" + name + ":meta" }
func rowKey(name string, id int64) string { return fmt.Sprintf("tensor:%s:row:%d", name, id) }

func (s *RedisStore) Init(ctx context.Context, name string, rows, cols int64, fill float32) error {
	if rows <= 0 || cols <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "tensor %q needs positive dimensions", name)
	}
	// HSETNX on the rows field doubles as the existence check.
	created, err := s.rdb.HSetNX(ctx, metaKey(name), "rows", rows).Result()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "init tensor %q", name)
	}
	if !created {
		return errors.New(errors.ErrCodeInvalidArgument, "tensor %q already initialized", name)
	}
	if err := s.rdb.HSet(ctx, metaKey(name), "cols", cols, "fill", float64(fill)).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "init tensor %q", name)
	}
	return nil
}

func (s *RedisStore) Push(ctx context.Context, name string, ids []int64, data []float32) error {
	rows, cols, fill, err := s.meta(ctx, name)
	if err != nil {
		return err
	}
	if int64(len(data)) != int64(len(ids))*cols {
		return errors.New(errors.ErrCodeInvalidArgument,
			"push of %d values for %d rows of %d columns", len(data), len(ids), cols)
	}
	for i, id := range ids {
		if id < 0 || id >= rows {
			return errors.New(errors.ErrCodeInvalidArgument, "row %d out of range for %q", id, name)
		}
		src := data[int64(i)*cols : int64(i+1)*cols]
		// Read-modify-write under WATCH so concurrent pushes to the
		// same row both land.
		key := rowKey(name, id)
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			row, err := s.readRow(ctx, tx, key, cols, fill)
			if err != nil {
				return err
			}
			for j := range row {
				row[j] += src[j]
			}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Set(ctx, key, rowBytes(row), 0)
				return nil
			})
			return err
		}, key)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "push row %d of %q", id, name)
		}
	}
	return nil
}

func (s *RedisStore) Pull(ctx context.Context, name string, ids []int64) ([]float32, error) {
	rows, cols, fill, err := s.meta(ctx, name)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		if id < 0 || id >= rows {
			return nil, errors.New(errors.ErrCodeInvalidArgument, "row %d out of range for %q", id, name)
		}
		keys[i] = rowKey(name, id)
	}
	out := make([]float32, 0, int64(len(ids))*cols)
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "pull from %q", name)
	}
	for i, v := range vals {
		switch raw := v.(type) {
		case nil:
			// Row never pushed; it still holds the fill value.
			for j := int64(0); j < cols; j++ {
				out = append(out, fill)
			}
		case string:
			row, err := parseRow([]byte(raw), cols)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "row %d of %q", ids[i], name)
			}
			out = append(out, row...)
		default:
			return nil, errors.New(errors.ErrCodeInternal, "row %d of %q has type %T", ids[i], name, v)
		}
	}
	return out, nil
}

func (s *RedisStore) Meta(ctx context.Context, name string) (int64, int64, error) {
	rows, cols, _, err := s.meta(ctx, name)
	return rows, cols, err
}

func (s *RedisStore) meta(ctx context.Context, name string) (rows, cols int64, fill float32, err error) {
	vals, err := s.rdb.HGetAll(ctx, metaKey(name)).Result()
	if err != nil {
		return 0, 0, 0, errors.Wrap(errors.ErrCodeInternal, err, "read meta of %q", name)
	}
	if len(vals) == 0 {
		return 0, 0, 0, errors.New(errors.ErrCodeNotFound, "no tensor %q", name)
	}
	if _, err := fmt.Sscan(vals["rows"], &rows); err != nil {
		return 0, 0, 0, errors.Wrap(errors.ErrCodeInternal, err, "meta rows of %q", name)
	}
	if _, err := fmt.Sscan(vals["cols"], &cols); err != nil {
		return 0, 0, 0, errors.Wrap(errors.ErrCodeInternal, err, "meta cols of %q", name)
	}
	var f float64
	if _, err := fmt.Sscan(vals["fill"], &f); err != nil {
		return 0, 0, 0, errors.Wrap(errors.ErrCodeInternal, err, "meta fill of %q", name)
	}
	return rows, cols, float32(f), nil
}

func (s *RedisStore) readRow(ctx context.Context, tx *redis.Tx, key string, cols int64, fill float32) ([]float32, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if err == redis.Nil {
		row := make([]float32, cols)
		for j := range row {
			row[j] = fill
		}
		return row, nil
	}
	if err != nil {
		return nil, err
	}
	return parseRow(raw, cols)
}

func rowBytes(row []float32) []byte {
	buf := make([]byte, 4*len(row))
	for i, v := range row {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func parseRow(raw []byte, cols int64) ([]float32, error) {
	if int64(len(raw)) != 4*cols {
		return nil, fmt.Errorf("row is %d bytes, want %d", len(raw), 4*cols)
	}
	row := make([]float32, cols)
	for i := range row {
		row[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return row, nil
}
