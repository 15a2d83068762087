package kvstore

import (
	"github.com/shardgraph/shardgraph/pkg/array"
	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/transport"
	"github.com/shardgraph/shardgraph/pkg/wire"
)

// SendMsg ships one key-value message to a receiver. The header always
// travels first; when the type carries arrays, an [wire.ArrayMeta]
// frame announcing their shapes follows, then the raw payloads (id
// rows, then data rows).
func SendMsg(s transport.Sender, recvID int, m *wire.KVMsg) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.Send(m.MarshalHeader(), recvID); err != nil {
		return err
	}
	f, err := wire.KVFields(m.Type)
	if err != nil {
		return err
	}
	if !f.ID {
		return nil
	}

	meta := wire.NewArrayMeta(m.Type)
	meta.AddArray(m.ID)
	if f.Data {
		meta.AddArray(m.Data)
	}
	if err := s.Send(meta.Marshal(), recvID); err != nil {
		return err
	}
	if err := s.Send(m.ID.Bytes(), recvID); err != nil {
		return err
	}
	if f.Data {
		if err := s.Send(m.Data.Bytes(), recvID); err != nil {
			return err
		}
	}
	return nil
}

// RecvMsg waits for the next key-value message from any sender and
// returns it with the sender's id. Ids decode as int64 arrays and data
// as float32 arrays, matching what [SendMsg] producers ship.
func RecvMsg(r transport.Receiver) (*wire.KVMsg, int, error) {
	header, senderID, err := r.Recv()
	if err != nil {
		return nil, 0, err
	}
	m, err := wire.UnmarshalKVHeader(header)
	if err != nil {
		return nil, senderID, err
	}
	f, err := wire.KVFields(m.Type)
	if err != nil {
		return nil, senderID, err
	}
	if !f.ID {
		return m, senderID, m.Validate()
	}

	frame, err := r.RecvFrom(senderID)
	if err != nil {
		return nil, senderID, err
	}
	meta, err := wire.UnmarshalArrayMeta(frame)
	if err != nil {
		return nil, senderID, err
	}
	want := 1
	if f.Data {
		want = 2
	}
	if meta.Type != m.Type || meta.Count() != want {
		return nil, senderID, errors.New(errors.ErrCodeProtocol,
			"%s message announces %d %s arrays, want %d", m.Type, meta.Count(), meta.Type, want)
	}
	shapes, err := meta.Shapes()
	if err != nil {
		return nil, senderID, err
	}

	if m.ID, err = recvArray(r, senderID, shapes[0], array.Int64); err != nil {
		return nil, senderID, err
	}
	if f.Data {
		if m.Data, err = recvArray(r, senderID, shapes[1], array.Float32); err != nil {
			return nil, senderID, err
		}
	}
	return m, senderID, m.Validate()
}

func recvArray(r transport.Receiver, senderID int, shape []int64, dtype array.DType) (*array.Array, error) {
	payload, err := r.RecvFrom(senderID)
	if err != nil {
		return nil, err
	}
	a, err := array.FromBytes(shape, dtype, payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProtocol, err, "payload does not match its announced shape")
	}
	return a, nil
}
