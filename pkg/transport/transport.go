// Package transport moves opaque binary frames between processes over
// TCP sockets.
//
// The model is point-to-point with static membership: a [Sender] is
// connected to a fixed set of receivers addressed by integer id, and a
// [Receiver] accepts a fixed number of senders. Frames from one sender
// arrive in the order they were sent; ordering across senders is
// undefined. Each connection starts with a handshake frame carrying the
// sender's id, so the receiver can demultiplex.
//
// Sends enqueue onto a bounded per-peer queue and block when the peer
// is slow; there is no retry logic. A broken connection surfaces as a
// TRANSPORT_FAILURE on the next operation and the caller decides
// whether that is fatal.
package transport

import (
	"strings"

	"github.com/shardgraph/shardgraph/pkg/errors"
)

const (
	// DefaultQueueSize is the per-peer frame queue capacity.
	DefaultQueueSize = 512

	// maxFrameSize guards against corrupt length prefixes.
	maxFrameSize = int64(1) << 32
)

// Sender pushes frames to a set of receivers.
type Sender interface {
	// AddReceiver registers a receiver address under an id. Must be
	// called before Connect.
	AddReceiver(addr string, recvID int) error
	// Connect dials every registered receiver and performs the
	// handshake.
	Connect() error
	// Send queues a frame for a receiver, blocking if its queue is
	// full. The buffer must not be modified until Finalize returns.
	Send(data []byte, recvID int) error
	// Finalize flushes the queues and closes the connections.
	Finalize() error
}

// Receiver accepts frames from a set of senders.
type Receiver interface {
	// Listen binds the local address. Addr reports the bound address,
	// which matters when the port was chosen by the system.
	Listen(addr string) error
	Addr() string
	// Wait accepts handshakes until numSenders peers are connected.
	Wait(numSenders int) error
	// Recv returns the next frame from any sender.
	Recv() (data []byte, senderID int, err error)
	// RecvFrom returns the next frame from one sender.
	RecvFrom(senderID int) ([]byte, error)
	// Finalize closes the listener and all connections.
	Finalize() error
}

// parseAddr splits a "socket://host:port" address.
func parseAddr(addr string) (string, error) {
	const scheme = "socket://"
	if !strings.HasPrefix(addr, scheme) {
		return "", errors.New(errors.ErrCodeProtocol,
			"address %q does not start with %s", addr, scheme)
	}
	hostport := addr[len(scheme):]
	if !strings.Contains(hostport, ":") {
		return "", errors.New(errors.ErrCodeInvalidArgument, "address %q has no port", addr)
	}
	return hostport, nil
}
