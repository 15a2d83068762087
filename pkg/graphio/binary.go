// Package graphio persists and renders graph indexes: a binary
// snapshot format for immutable graphs and Graphviz DOT export.
package graphio

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"unsafe"

	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/graph"
)

const (
	magicBytes = "SHRDGRPH"
	version    = uint32(1)

	maxNodes = 1 << 34
	maxEdges = 1 << 36

	flagMultiKnown = 1 << 0
	flagMultiValue = 1 << 1
)

// fileHeader is the binary header. All multi-byte fields are
// little-endian.
type fileHeader struct {
	Magic    [8]byte
	Version  uint32
	Flags    uint32
	NumNodes uint64
	NumEdges uint64
}

// WriteFile serializes g to path as an out-CSR snapshot. The file is
// written to a temp sibling and renamed into place, so readers never
// observe a partial file.
func WriteFile(path string, g *graph.Immutable) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", tmpPath)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	if err := Encode(f, g); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "close %s", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "rename to %s", path)
	}
	return nil
}

// ReadFile deserializes an immutable graph written by [WriteFile].
func ReadFile(path string) (*graph.Immutable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes the snapshot: header, out-CSR arrays (indptr, indices,
// edge ids as int64), and a CRC32 trailer over everything before it.
func Encode(w io.Writer, g *graph.Immutable) error {
	out := g.OutCSR()

	cw := &crcWriter{w: w, hash: crc32.NewIEEE()}
	hdr := fileHeader{
		Version:  version,
		NumNodes: uint64(g.NumVertices()),
		NumEdges: uint64(g.NumEdges()),
		Flags:    multiFlags(g),
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(cw, binary.LittleEndian, &hdr); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write header")
	}

	for _, s := range [][]int64{out.Indptr, out.Indices, out.EdgeIDs} {
		if err := writeInt64Slice(cw, s); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, cw.hash.Sum32()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write checksum")
	}
	return nil
}

// Decode reads a snapshot and validates the checksum and the CSR
// invariants before constructing the graph.
func Decode(r io.Reader) (*graph.Immutable, error) {
	cr := &crcReader{r: r, hash: crc32.NewIEEE()}

	var hdr fileHeader
	if err := binary.Read(cr, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProtocol, err, "read header")
	}
	if string(hdr.Magic[:]) != magicBytes {
		return nil, errors.New(errors.ErrCodeProtocol, "bad magic %q", hdr.Magic)
	}
	if hdr.Version != version {
		return nil, errors.New(errors.ErrCodeProtocol, "unsupported version %d", hdr.Version)
	}
	if hdr.NumNodes > maxNodes {
		return nil, errors.New(errors.ErrCodeProtocol, "node count %d exceeds limit", hdr.NumNodes)
	}
	if hdr.NumEdges > maxEdges {
		return nil, errors.New(errors.ErrCodeProtocol, "edge count %d exceeds limit", hdr.NumEdges)
	}

	csr := &graph.CSR{}
	var err error
	if csr.Indptr, err = readInt64Slice(cr, int(hdr.NumNodes)+1); err != nil {
		return nil, err
	}
	if csr.Indices, err = readInt64Slice(cr, int(hdr.NumEdges)); err != nil {
		return nil, err
	}
	if csr.EdgeIDs, err = readInt64Slice(cr, int(hdr.NumEdges)); err != nil {
		return nil, err
	}

	computed := cr.hash.Sum32()
	var stored uint32
	if err := binary.Read(r, binary.LittleEndian, &stored); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProtocol, err, "read checksum")
	}
	if stored != computed {
		return nil, errors.New(errors.ErrCodeProtocol,
			"checksum mismatch: stored %08x, computed %08x", stored, computed)
	}

	var opts []graph.ImmutableOption
	if hdr.Flags&flagMultiKnown != 0 {
		opts = append(opts, graph.KnownMultigraph(hdr.Flags&flagMultiValue != 0))
	}
	g, err := graph.NewImmutableFromCSR(csr, graph.DirOut, opts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProtocol, err, "snapshot CSR invalid")
	}
	return g, nil
}

// multiFlags snapshots the multigraph state. Encoding forces the
// inference so readers never pay for it again.
func multiFlags(g *graph.Immutable) uint32 {
	flags := uint32(flagMultiKnown)
	if g.IsMultigraph() {
		flags |= flagMultiValue
	}
	return flags
}

// writeInt64Slice writes a slice as raw bytes via a zero-copy
// reinterpretation. Array sections are in host byte order, so the
// snapshot format assumes little-endian hosts.
func writeInt64Slice(w io.Writer, s []int64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	if _, err := w.Write(b); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write int64 slice")
	}
	return nil
}

func readInt64Slice(r io.Reader, n int) ([]int64, error) {
	if n == 0 {
		return []int64{}, nil
	}
	s := make([]int64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, errors.Wrap(errors.ErrCodeProtocol, err, "read int64 slice")
	}
	return s, nil
}

type crcWriter struct {
	w    io.Writer
	hash crc32Hash
}

func (cw *crcWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.hash.Write(p[:n])
	return n, err
}

type crcReader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crcReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.hash.Write(p[:n])
	return n, err
}

type crc32Hash interface {
	io.Writer
	Sum32() uint32
}
