package kvstore

import (
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/transport"
	"github.com/shardgraph/shardgraph/pkg/wire"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Init(ctx, "emb", 4, 2, 0.5); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if err := s.Init(ctx, "emb", 4, 2, 0); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("second Init() error = %v, want INVALID_ARGUMENT", err)
	}
	rows, cols, err := s.Meta(ctx, "emb")
	if err != nil || rows != 4 || cols != 2 {
		t.Fatalf("Meta() = (%d, %d, %v), want (4, 2, nil)", rows, cols, err)
	}

	// Pushes accumulate on top of the fill value.
	if err := s.Push(ctx, "emb", []int64{1, 3}, []float32{1, 2, 3, 4}); err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	if err := s.Push(ctx, "emb", []int64{1}, []float32{10, 10}); err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	got, err := s.Pull(ctx, "emb", []int64{0, 1, 3})
	if err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	want := []float32{0.5, 0.5, 11.5, 12.5, 3.5, 4.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Pull() = %v, want %v", got, want)
	}
}

func TestMemoryStoreErrors(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Init(ctx, "emb", 2, 3, 0); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		err  error
		want errors.Code
	}{
		{"unknown name", s.Push(ctx, "nope", []int64{0}, []float32{1, 2, 3}), errors.ErrCodeNotFound},
		{"pull unknown", func() error { _, err := s.Pull(ctx, "nope", nil); return err }(), errors.ErrCodeNotFound},
		{"row out of range", s.Push(ctx, "emb", []int64{9}, []float32{1, 2, 3}), errors.ErrCodeInvalidArgument},
		{"ragged data", s.Push(ctx, "emb", []int64{0}, []float32{1}), errors.ErrCodeInvalidArgument},
		{"bad dims", s.Init(ctx, "zero", 0, 3, 0), errors.ErrCodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %s", tt.err, tt.want)
			}
		})
	}
}

// pair connects a sender to a listening receiver and waits for the
// handshake.
func pair(t *testing.T, senderID int32, r *transport.SocketReceiver) *transport.SocketSender {
	t.Helper()
	s := transport.NewSocketSender(senderID, 16)
	if err := s.AddReceiver(r.Addr(), 0); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Connect() }()
	if err := r.Wait(1); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	return s
}

func listen(t *testing.T) *transport.SocketReceiver {
	t.Helper()
	r := transport.NewSocketReceiver(16)
	if err := r.Listen("socket://127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}
	t.Cleanup(func() { r.Finalize() })
	return r
}

func TestClientServerSequence(t *testing.T) {
	serverRecv := listen(t)
	clientRecv := listen(t)

	toServer := pair(t, 0, serverRecv)
	toClient := pair(t, 100, clientRecv)
	t.Cleanup(func() { toServer.Finalize(); toClient.Finalize() })

	store := NewMemoryStore()
	srv := NewServer(100, store, serverRecv, map[int]transport.Sender{0: toClient},
		log.NewWithOptions(io.Discard, log.Options{}))

	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run(context.Background()) }()

	c := NewClient(0, toServer, clientRecv)
	if err := c.Init("emb", 4, 2, 1); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if err := c.AnnouncePartition("part-0"); err != nil {
		t.Fatalf("AnnouncePartition() error: %v", err)
	}
	if err := c.Push("emb", []int64{1, 3}, []float32{1, 2, 3, 4}); err != nil {
		t.Fatalf("Push() error: %v", err)
	}
	if err := c.Barrier(); err != nil {
		t.Fatalf("Barrier() error: %v", err)
	}

	got, err := c.Pull("emb", []int64{0, 1, 3})
	if err != nil {
		t.Fatalf("Pull() error: %v", err)
	}
	want := []float32{1, 1, 2, 3, 4, 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Pull() = %v, want %v", got, want)
	}

	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	if err := <-runErr; err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if parts := srv.Partitions(); parts[0] != "part-0" {
		t.Errorf("Partitions() = %v, want client 0 on part-0", parts)
	}
}

func TestSendMsgValidation(t *testing.T) {
	s := transport.NewSocketSender(0, 2)
	// Missing name: the message never reaches the wire.
	err := SendMsg(s, 0, &wire.KVMsg{Type: wire.MsgPull})
	if !errors.Is(err, errors.ErrCodeProtocol) {
		t.Errorf("SendMsg() error = %v, want PROTOCOL_ERROR", err)
	}
}

func TestClientPushValidation(t *testing.T) {
	c := NewClient(0, transport.NewSocketSender(0, 2), nil)
	if err := c.Push("emb", []int64{0, 1}, []float32{1, 2, 3}); !errors.Is(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("Push() error = %v, want INVALID_ARGUMENT", err)
	}
}
