package transport

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/shardgraph/shardgraph/pkg/errors"
)

// startReceiver binds a loopback receiver on an ephemeral port and
// returns it with its address.
func startReceiver(t *testing.T, queueSize int) (*SocketReceiver, string) {
	t.Helper()
	r := NewSocketReceiver(queueSize)
	if err := r.Listen("socket://127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}
	t.Cleanup(func() { r.Finalize() })
	return r, r.Addr()
}

func TestParseAddr(t *testing.T) {
	tests := []struct {
		addr    string
		want    string
		wantErr bool
	}{
		{"socket://127.0.0.1:50051", "127.0.0.1:50051", false},
		{"socket://localhost:0", "localhost:0", false},
		{"tcp://127.0.0.1:50051", "", true},
		{"socket://noport", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			got, err := parseAddr(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAddr() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoopbackSendRecv(t *testing.T) {
	recv, addr := startReceiver(t, 8)

	s := NewSocketSender(7, 8)
	if err := s.AddReceiver(addr, 0); err != nil {
		t.Fatalf("AddReceiver() error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		if err := s.Connect(); err != nil {
			done <- err
			return
		}
		for i := 0; i < 3; i++ {
			if err := s.Send([]byte(fmt.Sprintf("frame-%d", i)), 0); err != nil {
				done <- err
				return
			}
		}
		done <- s.Finalize()
	}()

	if err := recv.Wait(1); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}

	// Frames arrive in order with the sender's id attached.
	for i := 0; i < 3; i++ {
		data, senderID, err := recv.Recv()
		if err != nil {
			t.Fatalf("Recv() error: %v", err)
		}
		if senderID != 7 {
			t.Errorf("senderID = %d, want 7", senderID)
		}
		if want := []byte(fmt.Sprintf("frame-%d", i)); !bytes.Equal(data, want) {
			t.Errorf("frame %d = %q, want %q", i, data, want)
		}
	}

	if err := <-done; err != nil {
		t.Fatalf("sender error: %v", err)
	}

	// After the sender finalizes, the stream ends.
	if _, _, err := recv.Recv(); !errors.Is(err, errors.ErrCodeTransportFailure) {
		t.Errorf("Recv() after close error = %v, want TRANSPORT_FAILURE", err)
	}
}

func TestRecvFromTwoSenders(t *testing.T) {
	recv, addr := startReceiver(t, 8)

	senders := make([]*SocketSender, 2)
	done := make(chan error, 2)
	for i := range senders {
		s := NewSocketSender(int32(i), 8)
		if err := s.AddReceiver(addr, 0); err != nil {
			t.Fatal(err)
		}
		senders[i] = s
		go func() {
			if err := s.Connect(); err != nil {
				done <- err
				return
			}
			done <- nil
		}()
	}
	if err := recv.Wait(2); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	for range senders {
		if err := <-done; err != nil {
			t.Fatalf("Connect() error: %v", err)
		}
	}

	if err := senders[1].Send([]byte("from-one"), 0); err != nil {
		t.Fatal(err)
	}
	if err := senders[0].Send([]byte("from-zero"), 0); err != nil {
		t.Fatal(err)
	}

	// RecvFrom demultiplexes regardless of arrival interleaving.
	data, err := recv.RecvFrom(0)
	if err != nil {
		t.Fatalf("RecvFrom(0) error: %v", err)
	}
	if !bytes.Equal(data, []byte("from-zero")) {
		t.Errorf("RecvFrom(0) = %q", data)
	}
	data, err = recv.RecvFrom(1)
	if err != nil {
		t.Fatalf("RecvFrom(1) error: %v", err)
	}
	if !bytes.Equal(data, []byte("from-one")) {
		t.Errorf("RecvFrom(1) = %q", data)
	}

	for _, s := range senders {
		if err := s.Finalize(); err != nil {
			t.Errorf("Finalize() error: %v", err)
		}
	}
}

func TestSenderIDFromRank(t *testing.T) {
	recv, addr := startReceiver(t, 2)

	// Cluster configs carry int32 ranks; the rank must flow through to
	// the id the receiver reports.
	var rank int32 = 11
	s := NewSocketSender(rank, 2)
	if err := s.AddReceiver(addr, 0); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		if err := s.Connect(); err != nil {
			done <- err
			return
		}
		if err := s.Send([]byte("hello"), 0); err != nil {
			done <- err
			return
		}
		done <- s.Finalize()
	}()
	if err := recv.Wait(1); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	_, senderID, err := recv.Recv()
	if err != nil {
		t.Fatalf("Recv() error: %v", err)
	}
	if senderID != int(rank) {
		t.Errorf("senderID = %d, want %d", senderID, rank)
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestAddrDuringWait(t *testing.T) {
	recv, addr := startReceiver(t, 2)

	// Addr must stay safe to call while Wait is accepting peers.
	stop := make(chan struct{})
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		for {
			select {
			case <-stop:
				return
			default:
				if recv.Addr() == "" {
					t.Error("Addr() returned empty while listening")
					return
				}
			}
		}
	}()

	s := NewSocketSender(3, 2)
	if err := s.AddReceiver(addr, 0); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Connect() }()
	if err := recv.Wait(1); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	close(stop)
	<-polled
	if err := <-done; err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := s.Finalize(); err != nil {
		t.Errorf("Finalize() error: %v", err)
	}
}

func TestRecvFromUnknownSender(t *testing.T) {
	recv, _ := startReceiver(t, 2)
	if _, err := recv.RecvFrom(99); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("RecvFrom(99) error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestSendValidation(t *testing.T) {
	s := NewSocketSender(0, 2)
	if err := s.Send([]byte("x"), 0); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("Send() before Connect error = %v, want INVALID_ARGUMENT", err)
	}
	if err := s.Connect(); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("Connect() with no receivers error = %v, want INVALID_ARGUMENT", err)
	}
	if err := s.AddReceiver("socket://127.0.0.1:1", 3); err != nil {
		t.Fatal(err)
	}
	if err := s.AddReceiver("socket://127.0.0.1:1", 3); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("duplicate AddReceiver() error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestConnectRefused(t *testing.T) {
	recv, addr := startReceiver(t, 2)
	recv.Finalize() // free the port so the dial fails

	s := NewSocketSender(0, 2)
	if err := s.AddReceiver(addr, 0); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	errc := make(chan error, 1)
	go func() { errc <- s.Connect() }()
	select {
	case err := <-errc:
		if !errors.Is(err, errors.ErrCodeTransportFailure) {
			t.Errorf("Connect() error = %v, want TRANSPORT_FAILURE", err)
		}
	case <-deadline:
		t.Fatal("Connect() did not fail in time")
	}
}

func TestEmptyFrame(t *testing.T) {
	recv, addr := startReceiver(t, 2)

	s := NewSocketSender(4, 2)
	if err := s.AddReceiver(addr, 0); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		if err := s.Connect(); err != nil {
			done <- err
			return
		}
		if err := s.Send(nil, 0); err != nil {
			done <- err
			return
		}
		done <- s.Finalize()
	}()
	if err := recv.Wait(1); err != nil {
		t.Fatal(err)
	}
	data, senderID, err := recv.Recv()
	if err != nil {
		t.Fatalf("Recv() error: %v", err)
	}
	if len(data) != 0 || senderID != 4 {
		t.Errorf("got %d bytes from %d, want empty frame from 4", len(data), senderID)
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
