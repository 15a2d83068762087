// Package nodeflow transfers sampled node-flow graphs between a
// sampler and a trainer process.
//
// A node-flow is a layered sample of a parent graph: the node and edge
// mappings trace sampled ids back to the parent, the offset arrays
// delimit layers and flows, and the graph itself ships as its in-CSR.
// One transfer is eight frames on the wire: an [wire.ArrayMeta] header
// announcing seven int64 arrays, then the raw array payloads in fixed
// order (node mapping, edge mapping, layer offsets, flow offsets,
// in-CSR indptr, indices, edge ids).
package nodeflow

import (
	"github.com/shardgraph/shardgraph/pkg/array"
	"github.com/shardgraph/shardgraph/pkg/errors"
	"github.com/shardgraph/shardgraph/pkg/graph"
	"github.com/shardgraph/shardgraph/pkg/transport"
	"github.com/shardgraph/shardgraph/pkg/wire"
)

// arrayCount is the number of payload frames in one transfer.
const arrayCount = 7

// NodeFlow is a sampled subgraph with its provenance arrays.
type NodeFlow struct {
	// Graph holds the sampled structure.
	Graph *graph.Immutable
	// NodeMapping and EdgeMapping map sampled ids to parent ids.
	NodeMapping *array.Array
	EdgeMapping *array.Array
	// LayerOffsets delimits the node layers, FlowOffsets the edge
	// blocks between consecutive layers.
	LayerOffsets *array.Array
	FlowOffsets  *array.Array
}

// Send ships a node-flow to one receiver. The graph travels as its
// in-CSR, which is materialized here if needed.
func Send(s transport.Sender, recvID int, nf *NodeFlow) error {
	in := nf.Graph.InCSR()
	arrays := []*array.Array{
		nf.NodeMapping,
		nf.EdgeMapping,
		nf.LayerOffsets,
		nf.FlowOffsets,
		array.NewInt64(in.Indptr),
		array.NewInt64(in.Indices),
		array.NewInt64(in.EdgeIDs),
	}

	meta := wire.NewArrayMeta(wire.MsgNodeFlow)
	for _, a := range arrays {
		meta.AddArray(a)
	}
	if err := s.Send(meta.Marshal(), recvID); err != nil {
		return err
	}
	for _, a := range arrays {
		if err := s.Send(a.Bytes(), recvID); err != nil {
			return err
		}
	}
	return nil
}

// SendEndSignal tells one receiver that this sampler is done.
func SendEndSignal(s transport.Sender, recvID int) error {
	return s.Send(wire.NewArrayMeta(wire.MsgFinal).Marshal(), recvID)
}

// Recv waits for the next transfer from any sampler. It returns the
// node-flow and the sampler's id; more is false when the sampler sent
// its end signal instead of a node-flow.
func Recv(r transport.Receiver) (nf *NodeFlow, senderID int, more bool, err error) {
	data, senderID, err := r.Recv()
	if err != nil {
		return nil, 0, false, err
	}
	meta, err := wire.UnmarshalArrayMeta(data)
	if err != nil {
		return nil, senderID, false, err
	}
	switch meta.Type {
	case wire.MsgFinal:
		return nil, senderID, false, nil
	case wire.MsgNodeFlow:
	default:
		return nil, senderID, false, errors.New(errors.ErrCodeProtocol,
			"unexpected %s message in node-flow stream", meta.Type)
	}
	if meta.Count() != arrayCount {
		return nil, senderID, false, errors.New(errors.ErrCodeProtocol,
			"node-flow header announces %d arrays, want %d", meta.Count(), arrayCount)
	}
	shapes, err := meta.Shapes()
	if err != nil {
		return nil, senderID, false, err
	}

	arrays := make([]*array.Array, arrayCount)
	for i := range arrays {
		payload, err := r.RecvFrom(senderID)
		if err != nil {
			return nil, senderID, false, err
		}
		a, err := array.FromBytes(shapes[i], array.Int64, payload)
		if err != nil {
			return nil, senderID, false, errors.Wrap(errors.ErrCodeProtocol, err,
				"node-flow payload %d does not match its announced shape", i)
		}
		arrays[i] = a
	}

	csr := &graph.CSR{}
	if csr.Indptr, err = arrays[4].Int64s(); err != nil {
		return nil, senderID, false, err
	}
	if csr.Indices, err = arrays[5].Int64s(); err != nil {
		return nil, senderID, false, err
	}
	if csr.EdgeIDs, err = arrays[6].Int64s(); err != nil {
		return nil, senderID, false, err
	}
	g, err := graph.NewImmutableFromCSR(csr, graph.DirIn)
	if err != nil {
		return nil, senderID, false, errors.Wrap(errors.ErrCodeProtocol, err, "node-flow graph invalid")
	}

	return &NodeFlow{
		Graph:        g,
		NodeMapping:  arrays[0],
		EdgeMapping:  arrays[1],
		LayerOffsets: arrays[2],
		FlowOffsets:  arrays[3],
	}, senderID, true, nil
}
