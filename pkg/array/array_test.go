package array

import "testing"

func TestNewInt64RoundTrip(t *testing.T) {
	vals := []int64{5, 2, 9, -1}
	a := NewInt64(vals)

	if a.NDim() != 1 || a.Shape()[0] != 4 {
		t.Fatalf("shape = %v, want [4]", a.Shape())
	}
	if a.NumBytes() != 32 {
		t.Fatalf("NumBytes() = %d, want 32", a.NumBytes())
	}

	got, err := a.Int64s()
	if err != nil {
		t.Fatalf("Int64s() error: %v", err)
	}
	for i, v := range vals {
		if got[i] != v {
			t.Errorf("Int64s()[%d] = %d, want %d", i, got[i], v)
		}
	}

	// The view aliases the original slice.
	got[0] = 42
	if vals[0] != 42 {
		t.Error("Int64s() view does not alias the source slice")
	}
}

func TestFromBytes(t *testing.T) {
	tests := []struct {
		name    string
		shape   []int64
		dtype   DType
		size    int
		wantErr bool
	}{
		{"matching int64", []int64{3}, Int64, 24, false},
		{"matching 2d float32", []int64{2, 3}, Float32, 24, false},
		{"short buffer", []int64{3}, Int64, 16, true},
		{"empty", []int64{0}, Int64, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBytes(tt.shape, tt.dtype, make([]byte, tt.size))
			if (err != nil) != tt.wantErr {
				t.Errorf("FromBytes() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTypedViewMismatch(t *testing.T) {
	a := NewFloat32([]float32{1, 2})
	if _, err := a.Int64s(); err == nil {
		t.Error("Int64s() on a float32 array should fail")
	}
	b := NewInt64([]int64{1})
	if _, err := b.Float32s(); err == nil {
		t.Error("Float32s() on an int64 array should fail")
	}
}

func TestEmpty(t *testing.T) {
	a := Empty([]int64{4, 2}, Float32)
	if a.Len() != 8 {
		t.Errorf("Len() = %d, want 8", a.Len())
	}
	if a.NumBytes() != 32 {
		t.Errorf("NumBytes() = %d, want 32", a.NumBytes())
	}
	f, err := a.Float32s()
	if err != nil {
		t.Fatalf("Float32s() error: %v", err)
	}
	for i, v := range f {
		if v != 0 {
			t.Errorf("element %d = %v, want 0", i, v)
		}
	}
}

func TestDTypeString(t *testing.T) {
	if Int64.String() != "int64" {
		t.Errorf("Int64.String() = %q", Int64.String())
	}
	if Float32.String() != "float32" {
		t.Errorf("Float32.String() = %q", Float32.String())
	}
}
