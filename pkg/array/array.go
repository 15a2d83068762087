// Package array provides fixed-shape, fixed-dtype numeric buffers.
//
// An [Array] is the currency for ids, offsets, and payloads at the
// boundaries of the graph engine: the wire codecs ship arrays as raw
// byte payloads, and external producers (feature stores, partitioners)
// hand arrays to the transfer layer. The graph index itself works on
// plain []int64 slices; convert at the boundary with [NewInt64] and
// [Array.Int64s].
//
// Typed views are zero-copy reinterpretations of the underlying byte
// buffer, so an Array and its views alias the same memory. Buffers are
// treated as immutable once handed to a sender (see pkg/transport).
package array

import (
	"fmt"
	"unsafe"

	"github.com/shardgraph/shardgraph/pkg/errors"
)

// Kind is the element kind of an array's dtype.
type Kind int

const (
	Int Kind = iota
	Uint
	Float
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DType describes the element type of an array.
type DType struct {
	Kind  Kind
	Bits  int // bit width of one lane (8, 16, 32, 64)
	Lanes int // vector lanes; 1 for scalar types
}

// Common dtypes.
var (
	Int64   = DType{Kind: Int, Bits: 64, Lanes: 1}
	Int32   = DType{Kind: Int, Bits: 32, Lanes: 1}
	Float32 = DType{Kind: Float, Bits: 32, Lanes: 1}
)

// Size returns the byte size of one element.
func (d DType) Size() int { return d.Bits / 8 * d.Lanes }

func (d DType) String() string {
	if d.Lanes == 1 {
		return fmt.Sprintf("%s%d", d.Kind, d.Bits)
	}
	return fmt.Sprintf("%s%dx%d", d.Kind, d.Bits, d.Lanes)
}

// DeviceType tags where an array's buffer lives.
type DeviceType int

const (
	CPU DeviceType = iota
	GPU
)

// Device identifies the device holding an array's buffer.
type Device struct {
	Type DeviceType
	ID   int
}

func (d Device) String() string {
	if d.Type == CPU {
		return fmt.Sprintf("cpu:%d", d.ID)
	}
	return fmt.Sprintf("gpu:%d", d.ID)
}

// Array is a fixed-shape, fixed-dtype numeric buffer with a device tag.
// The zero value is not usable; construct with [FromBytes], [NewInt64],
// or [NewFloat32].
type Array struct {
	shape  []int64
	dtype  DType
	device Device
	data   []byte
}

// FromBytes wraps raw bytes as an array of the given shape and dtype.
// The buffer is aliased, not copied. Returns an INVALID_ARGUMENT error
// if the byte length does not match shape × dtype size.
func FromBytes(shape []int64, dtype DType, data []byte) (*Array, error) {
	n := NumElems(shape)
	if int64(len(data)) != n*int64(dtype.Size()) {
		return nil, errors.New(errors.ErrCodeInvalidArgument,
			"buffer is %d bytes, shape %v of %s needs %d", len(data), shape, dtype, n*int64(dtype.Size()))
	}
	return &Array{shape: append([]int64(nil), shape...), dtype: dtype, data: data}, nil
}

// NewInt64 wraps an int64 slice as a one-dimensional CPU array.
// The slice is aliased, not copied.
func NewInt64(vals []int64) *Array {
	var data []byte
	if len(vals) > 0 {
		data = unsafe.Slice((*byte)(unsafe.Pointer(&vals[0])), len(vals)*8)
	}
	return &Array{shape: []int64{int64(len(vals))}, dtype: Int64, data: data}
}

// NewFloat32 wraps a float32 slice as a one-dimensional CPU array.
// The slice is aliased, not copied.
func NewFloat32(vals []float32) *Array {
	var data []byte
	if len(vals) > 0 {
		data = unsafe.Slice((*byte)(unsafe.Pointer(&vals[0])), len(vals)*4)
	}
	return &Array{shape: []int64{int64(len(vals))}, dtype: Float32, data: data}
}

// Empty allocates a zeroed array of the given shape and dtype.
func Empty(shape []int64, dtype DType) *Array {
	n := NumElems(shape)
	return &Array{
		shape: append([]int64(nil), shape...),
		dtype: dtype,
		data:  make([]byte, n*int64(dtype.Size())),
	}
}

// Reshape returns a view of the same buffer with a new shape. The
// element count must not change.
func (a *Array) Reshape(shape []int64) (*Array, error) {
	if NumElems(shape) != a.Len() {
		return nil, errors.New(errors.ErrCodeInvalidArgument,
			"cannot reshape %d elements to %v", a.Len(), shape)
	}
	return &Array{
		shape:  append([]int64(nil), shape...),
		dtype:  a.dtype,
		device: a.device,
		data:   a.data,
	}, nil
}

// Shape returns the array's shape. The caller must not modify it.
func (a *Array) Shape() []int64 { return a.shape }

// NDim returns the number of dimensions.
func (a *Array) NDim() int { return len(a.shape) }

// DType returns the array's element type.
func (a *Array) DType() DType { return a.dtype }

// Device returns the device tag.
func (a *Array) Device() Device { return a.device }

// Len returns the total number of elements.
func (a *Array) Len() int64 { return NumElems(a.shape) }

// NumBytes returns the byte size of the buffer.
func (a *Array) NumBytes() int64 { return int64(len(a.data)) }

// Bytes returns the raw buffer. The buffer is aliased, not copied.
func (a *Array) Bytes() []byte { return a.data }

// Int64s returns a zero-copy int64 view of the buffer.
// Returns an error unless the array is a CPU int64 array.
func (a *Array) Int64s() ([]int64, error) {
	if a.dtype != Int64 || a.device.Type != CPU {
		return nil, errors.New(errors.ErrCodeInvalidArgument,
			"want cpu int64 array, got %s on %s", a.dtype, a.device)
	}
	if len(a.data) == 0 {
		return nil, nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(&a.data[0])), a.Len()), nil
}

// Float32s returns a zero-copy float32 view of the buffer.
// Returns an error unless the array is a CPU float32 array.
func (a *Array) Float32s() ([]float32, error) {
	if a.dtype != Float32 || a.device.Type != CPU {
		return nil, errors.New(errors.ErrCodeInvalidArgument,
			"want cpu float32 array, got %s on %s", a.dtype, a.device)
	}
	if len(a.data) == 0 {
		return nil, nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&a.data[0])), a.Len()), nil
}

// NumElems returns the element count implied by a shape.
func NumElems(shape []int64) int64 {
	n := int64(1)
	for _, s := range shape {
		n *= s
	}
	return n
}
