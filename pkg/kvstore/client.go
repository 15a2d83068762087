package kvstore

import (
	"github.com/shardgraph/shardgraph/pkg/array"
	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/transport"
	"github.com/shardgraph/shardgraph/pkg/wire"
)

// Client talks to one key-value server: requests go out on a sender
// connected to the server's receiver under id 0, replies come back on
// the client's own receiver.
type Client struct {
	rank   int32
	sender transport.Sender
	recv   transport.Receiver
}

// NewClient returns a client with the given rank. The sender must
// already be connected; recv must already have accepted the server's
// back-channel connection.
func NewClient(rank int32, sender transport.Sender, recv transport.Receiver) *Client {
	return &Client{rank: rank, sender: sender, recv: recv}
}

// Init creates a rows×cols tensor on the server, filled with fill.
func (c *Client) Init(name string, rows, cols int64, fill float32) error {
	return SendMsg(c.sender, 0, &wire.KVMsg{
		Type: wire.MsgInit,
		Rank: c.rank,
		Name: name,
		ID:   array.NewInt64([]int64{rows, cols}),
		Data: array.NewFloat32([]float32{fill}),
	})
}

// Push adds data, laid out as len(ids) rows, into the named tensor.
func (c *Client) Push(name string, ids []int64, data []float32) error {
	if len(ids) == 0 || len(data)%len(ids) != 0 {
		return errors.New(errors.ErrCodeInvalidArgument,
			"push of %d values does not split across %d rows", len(data), len(ids))
	}
	shaped, err := array.NewFloat32(data).Reshape([]int64{int64(len(ids)), int64(len(data) / len(ids))})
	if err != nil {
		return err
	}
	return SendMsg(c.sender, 0, &wire.KVMsg{
		Type: wire.MsgPush,
		Rank: c.rank,
		Name: name,
		ID:   array.NewInt64(ids),
		Data: shaped,
	})
}

// Pull fetches the identified rows and returns them concatenated.
func (c *Client) Pull(name string, ids []int64) ([]float32, error) {
	err := SendMsg(c.sender, 0, &wire.KVMsg{
		Type: wire.MsgPull,
		Rank: c.rank,
		Name: name,
		ID:   array.NewInt64(ids),
	})
	if err != nil {
		return nil, err
	}
	m, _, err := RecvMsg(c.recv)
	if err != nil {
		return nil, err
	}
	if m.Type != wire.MsgPullBack || m.Name != name {
		return nil, errors.New(errors.ErrCodeProtocol,
			"pull of %q answered by %s %q", name, m.Type, m.Name)
	}
	return m.Data.Float32s()
}

// Barrier blocks until every client of the server has called Barrier.
func (c *Client) Barrier() error {
	err := SendMsg(c.sender, 0, &wire.KVMsg{Type: wire.MsgBarrier, Rank: c.rank})
	if err != nil {
		return err
	}
	m, _, err := RecvMsg(c.recv)
	if err != nil {
		return err
	}
	if m.Type != wire.MsgBarrier {
		return errors.New(errors.ErrCodeProtocol, "barrier answered by %s", m.Type)
	}
	return nil
}

// AnnouncePartition registers the partition this client feeds from.
func (c *Client) AnnouncePartition(name string) error {
	return SendMsg(c.sender, 0, &wire.KVMsg{Type: wire.MsgPartID, Rank: c.rank, Name: name})
}

// Shutdown tells the server this client is done. The server exits its
// run loop once every client has shut down.
func (c *Client) Shutdown() error {
	return SendMsg(c.sender, 0, &wire.KVMsg{Type: wire.MsgFinal, Rank: c.rank})
}
