package graphio

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/graph"
)

func fixture(t *testing.T) *graph.Immutable {
	t.Helper()
	g, err := graph.NewImmutableFromCOO(4, []int64{0, 0, 1, 2}, []int64{1, 2, 3, 3})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	g := fixture(t)

	var buf bytes.Buffer
	if err := Encode(&buf, g); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if got.NumVertices() != g.NumVertices() || got.NumEdges() != g.NumEdges() {
		t.Fatalf("decoded %d nodes, %d edges, want %d, %d",
			got.NumVertices(), got.NumEdges(), g.NumVertices(), g.NumEdges())
	}
	wantEdges, _ := g.Edges(graph.OrderEID)
	gotEdges, _ := got.Edges(graph.OrderEID)
	if !reflect.DeepEqual(gotEdges, wantEdges) {
		t.Errorf("decoded edges = %+v, want %+v", gotEdges, wantEdges)
	}
	if got.IsMultigraph() {
		t.Error("multigraph flag not carried through the snapshot")
	}
}

func TestWriteReadFile(t *testing.T) {
	g := fixture(t)
	path := filepath.Join(t.TempDir(), "graph.bin")

	if err := WriteFile(path, g); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if got.NumEdges() != 4 {
		t.Errorf("NumEdges() = %d, want 4", got.NumEdges())
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.bin"))
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("ReadFile() error = %v, want NOT_FOUND", err)
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	g := fixture(t)
	var buf bytes.Buffer
	if err := Encode(&buf, g); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] ^= 0xff
		if _, err := Decode(bytes.NewReader(bad)); !errors.Is(err, errors.ErrCodeProtocol) {
			t.Errorf("Decode() error = %v, want PROTOCOL_ERROR", err)
		}
	})

	t.Run("flipped payload byte", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[len(bad)-10] ^= 0x01
		if _, err := Decode(bytes.NewReader(bad)); !errors.Is(err, errors.ErrCodeProtocol) {
			t.Errorf("Decode() error = %v, want PROTOCOL_ERROR", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		if _, err := Decode(bytes.NewReader(data[:len(data)/2])); !errors.Is(err, errors.ErrCodeProtocol) {
			t.Errorf("Decode() error = %v, want PROTOCOL_ERROR", err)
		}
	})
}

func TestToDOT(t *testing.T) {
	g := fixture(t)
	dot, err := ToDOT(g, DOTOptions{EdgeIDs: true})
	if err != nil {
		t.Fatalf("ToDOT() error: %v", err)
	}
	for _, want := range []string{"digraph G {", "0 -> 1 [label=\"e0\"]", "2 -> 3 [label=\"e3\"]"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTHaloStyling(t *testing.T) {
	g := fixture(t)
	dot, err := ToDOT(g, DOTOptions{
		HaloNodes: []int64{1, 1, 0, 1},
		HaloEdges: []int64{1, 0, 1, 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(dot, "2 [style=dashed, color=grey];") {
		t.Errorf("halo node not styled:\n%s", dot)
	}
	if !strings.Contains(dot, "0 -> 2 [style=dashed, color=grey];") {
		t.Errorf("halo edge not styled:\n%s", dot)
	}
}
