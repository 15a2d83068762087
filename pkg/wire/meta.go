package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/shardgraph/shardgraph/pkg/array"
	"github.com/shardgraph/shardgraph/pkg/errors"
)

// maxShapeEntries bounds the flattened shape list a decoder will
// accept, so a corrupt length field cannot trigger a huge allocation.
const maxShapeEntries = 1 << 20

// ArrayMeta is the control header that precedes a batch of raw array
// payload frames. It records the message type and the shape of each
// array that follows, in order; payload bytes travel in separate
// frames.
type ArrayMeta struct {
	Type MsgType

	// shapes is the flattened shape list: for each array, its rank
	// followed by its dimensions.
	shapes []int64
	count  int32
}

// NewArrayMeta returns an empty header of the given type.
func NewArrayMeta(t MsgType) *ArrayMeta {
	return &ArrayMeta{Type: t}
}

// AddArray appends an array's shape to the header.
func (m *ArrayMeta) AddArray(a *array.Array) {
	m.AddShape(a.Shape())
}

// AddShape appends a shape to the header.
func (m *ArrayMeta) AddShape(shape []int64) {
	m.shapes = append(m.shapes, int64(len(shape)))
	m.shapes = append(m.shapes, shape...)
	m.count++
}

// Count returns the number of announced arrays.
func (m *ArrayMeta) Count() int { return int(m.count) }

// Shapes returns the announced shapes in order.
func (m *ArrayMeta) Shapes() ([][]int64, error) {
	out := make([][]int64, 0, m.count)
	i := 0
	for i < len(m.shapes) {
		ndim := int(m.shapes[i])
		i++
		if ndim < 0 || i+ndim > len(m.shapes) {
			return nil, errors.New(errors.ErrCodeProtocol,
				"shape list truncated at entry %d", len(out))
		}
		out = append(out, m.shapes[i:i+ndim])
		i += ndim
	}
	if len(out) != int(m.count) {
		return nil, errors.New(errors.ErrCodeProtocol,
			"shape list has %d arrays, header says %d", len(out), m.count)
	}
	return out, nil
}

// Marshal encodes the header: message type, then, if any arrays were
// announced, the array count, the flattened shape list length, and the
// list itself.
func (m *ArrayMeta) Marshal() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(m.Type)) //nolint:errcheck // buffer writes cannot fail
	if m.count > 0 {
		binary.Write(&buf, binary.LittleEndian, m.count)               //nolint:errcheck
		binary.Write(&buf, binary.LittleEndian, uint64(len(m.shapes))) //nolint:errcheck
		binary.Write(&buf, binary.LittleEndian, m.shapes)              //nolint:errcheck
	}
	return buf.Bytes()
}

// UnmarshalArrayMeta decodes a header produced by [ArrayMeta.Marshal].
func UnmarshalArrayMeta(data []byte) (*ArrayMeta, error) {
	r := bytes.NewReader(data)

	var msgType int32
	if err := binary.Read(r, binary.LittleEndian, &msgType); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProtocol, err, "read message type")
	}
	m := &ArrayMeta{Type: MsgType(msgType)}
	if r.Len() == 0 {
		return m, nil
	}

	if err := binary.Read(r, binary.LittleEndian, &m.count); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProtocol, err, "read array count")
	}
	var shapeLen uint64
	if err := binary.Read(r, binary.LittleEndian, &shapeLen); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProtocol, err, "read shape list length")
	}
	if m.count < 0 || shapeLen > maxShapeEntries {
		return nil, errors.New(errors.ErrCodeProtocol,
			"implausible header: %d arrays, %d shape entries", m.count, shapeLen)
	}
	m.shapes = make([]int64, shapeLen)
	if err := binary.Read(r, binary.LittleEndian, m.shapes); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProtocol, err, "read shape list")
	}
	if r.Len() != 0 {
		return nil, errors.New(errors.ErrCodeProtocol, "%d trailing bytes in header", r.Len())
	}
	if _, err := m.Shapes(); err != nil {
		return nil, err
	}
	return m, nil
}
