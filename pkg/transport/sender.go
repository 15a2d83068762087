package transport

import (
	"encoding/binary"
	"net"
	"sync"

	"github.com/shardgraph/shardgraph/pkg/errors"
)

// SocketSender is the TCP [Sender]. One writer goroutine per peer
// drains a bounded queue, so Send blocks only when the peer's queue is
// full.
type SocketSender struct {
	id        int32
	queueSize int

	mu        sync.Mutex
	peers     map[int]*senderPeer
	connected bool
	finalized bool
}

type senderPeer struct {
	addr  string
	conn  net.Conn
	queue chan []byte
	done  chan struct{}

	mu  sync.Mutex
	err error
}

func (p *senderPeer) fail(err error) {
	p.mu.Lock()
	if p.err == nil {
		p.err = err
	}
	p.mu.Unlock()
}

func (p *senderPeer) failure() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// NewSocketSender returns a sender that identifies itself to peers with
// the given id. queueSize <= 0 selects [DefaultQueueSize].
func NewSocketSender(senderID int32, queueSize int) *SocketSender {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &SocketSender{
		id:        senderID,
		queueSize: queueSize,
		peers:     map[int]*senderPeer{},
	}
}

func (s *SocketSender) AddReceiver(addr string, recvID int) error {
	hostport, err := parseAddr(addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return errors.New(errors.ErrCodeInvalidArgument, "cannot add receivers after Connect")
	}
	if _, dup := s.peers[recvID]; dup {
		return errors.New(errors.ErrCodeInvalidArgument, "receiver id %d already registered", recvID)
	}
	s.peers[recvID] = &senderPeer{
		addr:  hostport,
		queue: make(chan []byte, s.queueSize),
		done:  make(chan struct{}),
	}
	return nil
}

// Connect dials every peer, sends the handshake frame carrying the
// sender id, and starts the writer goroutines.
func (s *SocketSender) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return errors.New(errors.ErrCodeInvalidArgument, "already connected")
	}
	if len(s.peers) == 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "no receivers registered")
	}

	for id, p := range s.peers {
		conn, err := net.Dial("tcp", p.addr)
		if err != nil {
			return errors.Wrap(errors.ErrCodeTransportFailure, err, "connect receiver %d at %s", id, p.addr)
		}
		var hs [4]byte
		binary.LittleEndian.PutUint32(hs[:], uint32(s.id))
		if _, err := conn.Write(hs[:]); err != nil {
			conn.Close()
			return errors.Wrap(errors.ErrCodeTransportFailure, err, "handshake with receiver %d", id)
		}
		p.conn = conn
		go p.writeLoop()
	}
	s.connected = true
	return nil
}

// writeLoop frames and writes queued buffers until the queue closes.
func (p *senderPeer) writeLoop() {
	defer close(p.done)
	for data := range p.queue {
		var size [8]byte
		binary.LittleEndian.PutUint64(size[:], uint64(len(data)))
		if _, err := p.conn.Write(size[:]); err != nil {
			p.fail(errors.Wrap(errors.ErrCodeTransportFailure, err, "write frame header"))
			return
		}
		if _, err := p.conn.Write(data); err != nil {
			p.fail(errors.Wrap(errors.ErrCodeTransportFailure, err, "write frame payload"))
			return
		}
	}
}

func (s *SocketSender) Send(data []byte, recvID int) error {
	s.mu.Lock()
	p, ok := s.peers[recvID]
	connected, finalized := s.connected, s.finalized
	s.mu.Unlock()

	if !ok {
		return errors.New(errors.ErrCodeInvalidArgument, "unknown receiver id %d", recvID)
	}
	if !connected || finalized {
		return errors.New(errors.ErrCodeInvalidArgument, "sender is not connected")
	}
	if err := p.failure(); err != nil {
		return err
	}

	select {
	case p.queue <- data:
		return nil
	case <-p.done:
		// The writer died while we were blocked on a full queue.
		if err := p.failure(); err != nil {
			return err
		}
		return errors.New(errors.ErrCodeTransportFailure, "receiver %d is gone", recvID)
	}
}

// Finalize closes the queues, waits for the writers to drain, and
// closes the connections. The first writer error, if any, is returned.
func (s *SocketSender) Finalize() error {
	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return nil
	}
	s.finalized = true
	connected := s.connected
	s.mu.Unlock()

	var first error
	for _, p := range s.peers {
		if !connected {
			continue
		}
		close(p.queue)
		<-p.done
		if err := p.failure(); err != nil && first == nil {
			first = err
		}
		if err := p.conn.Close(); err != nil && first == nil {
			first = errors.Wrap(errors.ErrCodeTransportFailure, err, "close connection")
		}
	}
	return first
}
