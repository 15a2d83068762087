// Package wire defines the binary control messages exchanged between
// graph engine processes: array metadata headers that precede raw
// payload frames, and key-value store request headers.
//
// Multi-byte fields in the control messages are encoded little-endian
// regardless of host order. The raw payload frames they describe are
// zero-copy views of typed arrays in host byte order, so cross-machine
// transfers assume little-endian hosts on both ends.
package wire

import (
	"fmt"

	"github.com/shardgraph/shardgraph/pkg/errors"
)

// MsgType tags every control message.
type MsgType int32

const (
	// MsgNodeFlow announces a sampled node-flow graph transfer.
	MsgNodeFlow MsgType = iota
	// MsgFinal tells the peer to shut down its receive loop.
	MsgFinal
	// MsgInit seeds a tensor in a key-value store.
	MsgInit
	// MsgPush sends ids plus payload rows to add into a stored tensor.
	MsgPush
	// MsgPull requests payload rows for the given ids.
	MsgPull
	// MsgPullBack answers a pull with ids plus payload rows.
	MsgPullBack
	// MsgBarrier blocks until every peer has reached the same point.
	MsgBarrier
	// MsgPartID announces which partition a server owns.
	MsgPartID
)

func (t MsgType) String() string {
	switch t {
	case MsgNodeFlow:
		return "nodeflow"
	case MsgFinal:
		return "final"
	case MsgInit:
		return "init"
	case MsgPush:
		return "push"
	case MsgPull:
		return "pull"
	case MsgPullBack:
		return "pullback"
	case MsgBarrier:
		return "barrier"
	case MsgPartID:
		return "partid"
	default:
		return fmt.Sprintf("msgtype(%d)", int32(t))
	}
}

// Fields says which optional parts a key-value message of a given type
// carries on the wire. The flags drive both the send and the receive
// sequence, so the two sides cannot drift apart.
type Fields struct {
	Name bool
	ID   bool
	Data bool
}

var kvFields = map[MsgType]Fields{
	MsgFinal:    {},
	MsgBarrier:  {},
	MsgPartID:   {Name: true},
	MsgPull:     {Name: true, ID: true},
	MsgPush:     {Name: true, ID: true, Data: true},
	MsgPullBack: {Name: true, ID: true, Data: true},
	MsgInit:     {Name: true, ID: true, Data: true},
}

// KVFields returns the field set of a key-value message type. Types
// outside the key-value protocol are a PROTOCOL_ERROR.
func KVFields(t MsgType) (Fields, error) {
	f, ok := kvFields[t]
	if !ok {
		return Fields{}, errors.New(errors.ErrCodeProtocol, "%s is not a key-value message", t)
	}
	return f, nil
}
