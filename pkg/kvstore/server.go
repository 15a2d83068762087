package kvstore

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/shardgraph/shardgraph/pkg/array"
	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/transport"
	"github.com/shardgraph/shardgraph/pkg/wire"
)

// Server answers key-value requests from a fixed set of clients.
//
// Requests arrive on one receiver; replies go out on a dedicated
// back-channel sender per client, each connected to that client's
// receiver under id 0. The run loop exits once every client has sent a
// final message.
type Server struct {
	rank    int32
	store   Store
	recv    transport.Receiver
	clients map[int]transport.Sender
	logger  *log.Logger

	barrier    int
	partitions map[int]string
}

// NewServer returns a server that serves store over the given
// transport endpoints. clients maps each client rank to the sender
// used for replies to it. A nil logger falls back to the default.
func NewServer(rank int32, store Store, recv transport.Receiver, clients map[int]transport.Sender, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		rank:       rank,
		store:      store,
		recv:       recv,
		clients:    clients,
		logger:     logger,
		partitions: map[int]string{},
	}
}

// Partitions returns the partition names announced so far, keyed by
// client rank.
func (s *Server) Partitions() map[int]string {
	out := make(map[int]string, len(s.partitions))
	for k, v := range s.partitions {
		out[k] = v
	}
	return out
}

// Run serves requests until every client has sent a final message.
// Store and protocol errors end the loop; the clients share one
// process group, so a half-served group is not worth limping along in.
func (s *Server) Run(ctx context.Context) error {
	active := len(s.clients)
	for active > 0 {
		m, senderID, err := RecvMsg(s.recv)
		if err != nil {
			return err
		}
		s.logger.Debug("kvstore request", "type", m.Type.String(), "client", senderID)

		switch m.Type {
		case wire.MsgFinal:
			active--
		case wire.MsgBarrier:
			if err := s.handleBarrier(); err != nil {
				return err
			}
		case wire.MsgPartID:
			s.partitions[senderID] = m.Name
		case wire.MsgInit:
			err = s.handleInit(ctx, m)
		case wire.MsgPush:
			err = s.handlePush(ctx, m)
		case wire.MsgPull:
			err = s.handlePull(ctx, m, senderID)
		default:
			err = errors.New(errors.ErrCodeProtocol, "server cannot handle %s messages", m.Type)
		}
		if err != nil {
			return err
		}
	}
	s.logger.Info("kvstore server stopped", "rank", s.rank)
	return nil
}

// handleBarrier counts arrivals and releases every client once all of
// them have checked in.
func (s *Server) handleBarrier() error {
	s.barrier++
	if s.barrier < len(s.clients) {
		return nil
	}
	s.barrier = 0
	for id, c := range s.clients {
		if err := SendMsg(c, 0, &wire.KVMsg{Type: wire.MsgBarrier, Rank: s.rank}); err != nil {
			return errors.Wrap(errors.ErrCodeTransportFailure, err, "release barrier for client %d", id)
		}
	}
	return nil
}

// handleInit creates a tensor. The id array carries [rows, cols] and
// the data array a single fill value.
func (s *Server) handleInit(ctx context.Context, m *wire.KVMsg) error {
	dims, err := m.ID.Int64s()
	if err != nil {
		return err
	}
	if len(dims) != 2 {
		return errors.New(errors.ErrCodeProtocol, "init of %q carries %d dims, want [rows, cols]", m.Name, len(dims))
	}
	fill, err := m.Data.Float32s()
	if err != nil {
		return err
	}
	if len(fill) != 1 {
		return errors.New(errors.ErrCodeProtocol, "init of %q carries %d fill values, want 1", m.Name, len(fill))
	}
	return s.store.Init(ctx, m.Name, dims[0], dims[1], fill[0])
}

func (s *Server) handlePush(ctx context.Context, m *wire.KVMsg) error {
	ids, err := m.ID.Int64s()
	if err != nil {
		return err
	}
	data, err := m.Data.Float32s()
	if err != nil {
		return err
	}
	return s.store.Push(ctx, m.Name, ids, data)
}

func (s *Server) handlePull(ctx context.Context, m *wire.KVMsg, senderID int) error {
	c, ok := s.clients[senderID]
	if !ok {
		return errors.New(errors.ErrCodeProtocol, "pull from unknown client %d", senderID)
	}
	ids, err := m.ID.Int64s()
	if err != nil {
		return err
	}
	vals, err := s.store.Pull(ctx, m.Name, ids)
	if err != nil {
		return err
	}
	_, cols, err := s.store.Meta(ctx, m.Name)
	if err != nil {
		return err
	}
	data, err := array.NewFloat32(vals).Reshape([]int64{int64(len(ids)), cols})
	if err != nil {
		return err
	}
	return SendMsg(c, 0, &wire.KVMsg{
		Type: wire.MsgPullBack,
		Rank: s.rank,
		Name: m.Name,
		ID:   m.ID,
		Data: data,
	})
}
