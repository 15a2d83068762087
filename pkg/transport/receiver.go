package transport

import (
	"encoding/binary"
	"io"
	"net"
	"reflect"
	"sort"
	"sync"

	"github.com/shardgraph/shardgraph/pkg/errors"
)

// SocketReceiver is the TCP [Receiver]. One reader goroutine per sender
// parses frames into a bounded per-sender queue; Recv multiplexes over
// the queues.
type SocketReceiver struct {
	queueSize int

	mu       sync.Mutex
	listener net.Listener
	senders  map[int]*receiverPeer
}

type receiverPeer struct {
	conn  net.Conn
	queue chan []byte

	mu sync.Mutex
	// err records why the reader stopped; nil means a clean EOF.
	err error
}

func (p *receiverPeer) fail(err error) {
	p.mu.Lock()
	if p.err == nil {
		p.err = err
	}
	p.mu.Unlock()
}

func (p *receiverPeer) failure() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// NewSocketReceiver returns a receiver. queueSize <= 0 selects
// [DefaultQueueSize].
func NewSocketReceiver(queueSize int) *SocketReceiver {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &SocketReceiver{
		queueSize: queueSize,
		senders:   map[int]*receiverPeer{},
	}
}

func (r *SocketReceiver) Listen(addr string) error {
	hostport, err := parseAddr(addr)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", hostport)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTransportFailure, err, "listen on %s", hostport)
	}
	r.mu.Lock()
	r.listener = ln
	r.mu.Unlock()
	return nil
}

// Addr reports the bound address in socket:// form.
func (r *SocketReceiver) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return ""
	}
	return "socket://" + r.listener.Addr().String()
}

// Wait accepts connections until numSenders distinct peers have
// completed the handshake, then starts a reader per peer.
func (r *SocketReceiver) Wait(numSenders int) error {
	r.mu.Lock()
	ln := r.listener
	r.mu.Unlock()
	if ln == nil {
		return errors.New(errors.ErrCodeInvalidArgument, "Listen before Wait")
	}

	for {
		r.mu.Lock()
		connected := len(r.senders)
		r.mu.Unlock()
		if connected >= numSenders {
			return nil
		}

		conn, err := ln.Accept()
		if err != nil {
			return errors.Wrap(errors.ErrCodeTransportFailure, err, "accept")
		}
		var hs [4]byte
		if _, err := io.ReadFull(conn, hs[:]); err != nil {
			conn.Close()
			return errors.Wrap(errors.ErrCodeProtocol, err, "read handshake")
		}
		senderID := int(int32(binary.LittleEndian.Uint32(hs[:])))
		p := &receiverPeer{
			conn:  conn,
			queue: make(chan []byte, r.queueSize),
		}
		r.mu.Lock()
		if _, dup := r.senders[senderID]; dup {
			r.mu.Unlock()
			conn.Close()
			return errors.New(errors.ErrCodeProtocol, "duplicate sender id %d", senderID)
		}
		r.senders[senderID] = p
		r.mu.Unlock()
		go p.readLoop()
	}
}

// readLoop parses size-prefixed frames until the peer closes the
// connection. The queue is closed on exit, which is how consumers learn
// the stream ended.
func (p *receiverPeer) readLoop() {
	defer close(p.queue)
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(p.conn, hdr[:]); err != nil {
			if err != io.EOF {
				p.fail(errors.Wrap(errors.ErrCodeTransportFailure, err, "read frame header"))
			}
			return
		}
		size := int64(binary.LittleEndian.Uint64(hdr[:]))
		if size < 0 || size > maxFrameSize {
			p.fail(errors.New(errors.ErrCodeProtocol, "implausible frame size %d", size))
			return
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(p.conn, data); err != nil {
			p.fail(errors.Wrap(errors.ErrCodeTransportFailure, err, "read frame payload"))
			return
		}
		p.queue <- data
	}
}

// Recv returns the next frame from any connected sender, in arrival
// order. When every stream has ended it returns the first recorded
// stream error, or a TRANSPORT_FAILURE if all ended cleanly.
func (r *SocketReceiver) Recv() ([]byte, int, error) {
	ids := make([]int, 0, len(r.senders))
	for id := range r.senders {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	open := ids
	for len(open) > 0 {
		cases := make([]reflect.SelectCase, len(open))
		for i, id := range open {
			cases[i] = reflect.SelectCase{
				Dir:  reflect.SelectRecv,
				Chan: reflect.ValueOf(r.senders[id].queue),
			}
		}
		chosen, val, ok := reflect.Select(cases)
		id := open[chosen]
		if ok {
			return val.Bytes(), id, nil
		}
		if err := r.senders[id].failure(); err != nil {
			return nil, id, err
		}
		open = append(open[:chosen], open[chosen+1:]...)
	}
	return nil, 0, errors.New(errors.ErrCodeTransportFailure, "all senders closed")
}

// RecvFrom returns the next frame from one sender.
func (r *SocketReceiver) RecvFrom(senderID int) ([]byte, error) {
	p, ok := r.senders[senderID]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "unknown sender id %d", senderID)
	}
	data, open := <-p.queue
	if !open {
		if err := p.failure(); err != nil {
			return nil, err
		}
		return nil, errors.New(errors.ErrCodeTransportFailure, "sender %d closed the stream", senderID)
	}
	return data, nil
}

func (r *SocketReceiver) Finalize() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	if r.listener != nil {
		if err := r.listener.Close(); err != nil && first == nil {
			first = errors.Wrap(errors.ErrCodeTransportFailure, err, "close listener")
		}
		r.listener = nil
	}
	for _, p := range r.senders {
		if err := p.conn.Close(); err != nil && first == nil {
			first = errors.Wrap(errors.ErrCodeTransportFailure, err, "close connection")
		}
	}
	return first
}
