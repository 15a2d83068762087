package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/shardgraph/shardgraph/pkg/array"
	"github.com/shardgraph/shardgraph/pkg/errors"
)

// maxNameLen bounds the tensor name a decoder will accept.
const maxNameLen = 1 << 16

// KVMsg is one key-value store request or response. Only the header
// (type, rank, name) is encoded by this package; the ID and Data arrays
// travel as separate payload frames announced by an [ArrayMeta].
type KVMsg struct {
	Type MsgType
	Rank int32
	Name string
	ID   *array.Array
	Data *array.Array
}

// Validate checks that exactly the fields required by the message type
// are present.
func (m *KVMsg) Validate() error {
	f, err := KVFields(m.Type)
	if err != nil {
		return err
	}
	if f.Name && m.Name == "" {
		return errors.New(errors.ErrCodeProtocol, "%s message needs a name", m.Type)
	}
	if f.ID != (m.ID != nil) {
		return errors.New(errors.ErrCodeProtocol, "%s message id mismatch", m.Type)
	}
	if f.Data != (m.Data != nil) {
		return errors.New(errors.ErrCodeProtocol, "%s message data mismatch", m.Type)
	}
	return nil
}

// MarshalHeader encodes the message header: type and rank, then the
// length-prefixed name when the type carries one.
func (m *KVMsg) MarshalHeader() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(m.Type)) //nolint:errcheck // buffer writes cannot fail
	binary.Write(&buf, binary.LittleEndian, m.Rank)        //nolint:errcheck
	if m.Name != "" {
		binary.Write(&buf, binary.LittleEndian, uint64(len(m.Name))) //nolint:errcheck
		buf.WriteString(m.Name)
	}
	return buf.Bytes()
}

// UnmarshalKVHeader decodes a header produced by [KVMsg.MarshalHeader].
// ID and Data stay nil; the caller attaches them after receiving the
// payload frames.
func UnmarshalKVHeader(data []byte) (*KVMsg, error) {
	r := bytes.NewReader(data)

	var msgType int32
	if err := binary.Read(r, binary.LittleEndian, &msgType); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProtocol, err, "read message type")
	}
	m := &KVMsg{Type: MsgType(msgType)}
	if err := binary.Read(r, binary.LittleEndian, &m.Rank); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProtocol, err, "read rank")
	}
	if r.Len() == 0 {
		return m, nil
	}

	var nameLen uint64
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProtocol, err, "read name length")
	}
	if nameLen == 0 || nameLen > maxNameLen {
		return nil, errors.New(errors.ErrCodeProtocol, "implausible name length %d", nameLen)
	}
	name := make([]byte, nameLen)
	if n, _ := r.Read(name); n != int(nameLen) || r.Len() != 0 {
		return nil, errors.New(errors.ErrCodeProtocol, "name does not fill the header remainder")
	}
	m.Name = string(name)
	return m, nil
}
