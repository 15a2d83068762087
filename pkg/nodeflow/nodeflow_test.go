package nodeflow

import (
	"reflect"
	"testing"

	"github.com/shardgraph/shardgraph/pkg/array"
	"github.com/shardgraph/shardgraph/pkg/graph"
	"github.com/shardgraph/shardgraph/pkg/transport"
)

func loopback(t *testing.T) (*transport.SocketSender, *transport.SocketReceiver) {
	t.Helper()
	r := transport.NewSocketReceiver(16)
	if err := r.Listen("socket://127.0.0.1:0"); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}
	t.Cleanup(func() { r.Finalize() })

	s := transport.NewSocketSender(0, 16)
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
	return s, r
}

func sample(t *testing.T) *NodeFlow {
	t.Helper()
	g, err := graph.NewImmutableFromCOO(4, []int64{1, 2, 3}, []int64{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	return &NodeFlow{
		Graph:        g,
		NodeMapping:  array.NewInt64([]int64{10, 11, 12, 13}),
		EdgeMapping:  array.NewInt64([]int64{100, 101, 102}),
		LayerOffsets: array.NewInt64([]int64{0, 1, 2, 4}),
		FlowOffsets:  array.NewInt64([]int64{0, 1, 3}),
	}
}

func TestSendRecvNodeFlow(t *testing.T) {
	s, r := loopback(t)
	want := sample(t)

	errc := make(chan error, 1)
	go func() { errc <- Send(s, 0, want) }()

	got, senderID, more, err := Recv(r)
	if err != nil {
		t.Fatalf("Recv() error: %v", err)
	}
	if !more {
		t.Fatal("Recv() reported end of stream")
	}
	if senderID != 0 {
		t.Errorf("senderID = %d, want 0", senderID)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	for name, pair := range map[string][2]*array.Array{
		"node mapping":  {got.NodeMapping, want.NodeMapping},
		"edge mapping":  {got.EdgeMapping, want.EdgeMapping},
		"layer offsets": {got.LayerOffsets, want.LayerOffsets},
		"flow offsets":  {got.FlowOffsets, want.FlowOffsets},
	} {
		g, _ := pair[0].Int64s()
		w, _ := pair[1].Int64s()
		if !reflect.DeepEqual(g, w) {
			t.Errorf("%s = %v, want %v", name, g, w)
		}
	}

	if got.Graph.NumVertices() != 4 || got.Graph.NumEdges() != 3 {
		t.Fatalf("graph has %d nodes, %d edges, want 4, 3", got.Graph.NumVertices(), got.Graph.NumEdges())
	}
	wantEdges, _ := want.Graph.Edges(graph.OrderEID)
	gotEdges, _ := got.Graph.Edges(graph.OrderEID)
	if !reflect.DeepEqual(gotEdges, wantEdges) {
		t.Errorf("graph edges = %+v, want %+v", gotEdges, wantEdges)
	}
}

func TestEndSignal(t *testing.T) {
	s, r := loopback(t)

	errc := make(chan error, 1)
	go func() { errc <- SendEndSignal(s, 0) }()

	nf, senderID, more, err := Recv(r)
	if err != nil {
		t.Fatalf("Recv() error: %v", err)
	}
	if more || nf != nil {
		t.Errorf("Recv() = (%v, more=%v), want end of stream", nf, more)
	}
	if senderID != 0 {
		t.Errorf("senderID = %d, want 0", senderID)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}

func TestStreamedTransfers(t *testing.T) {
	s, r := loopback(t)
	want := sample(t)

	errc := make(chan error, 1)
	go func() {
		for i := 0; i < 3; i++ {
			if err := Send(s, 0, want); err != nil {
				errc <- err
				return
			}
		}
		errc <- SendEndSignal(s, 0)
	}()

	var n int
	for {
		nf, _, more, err := Recv(r)
		if err != nil {
			t.Fatalf("Recv() error: %v", err)
		}
		if !more {
			break
		}
		if nf.Graph.NumEdges() != 3 {
			t.Errorf("transfer %d has %d edges, want 3", n, nf.Graph.NumEdges())
		}
		n++
	}
	if n != 3 {
		t.Errorf("received %d node-flows, want 3", n)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
}
