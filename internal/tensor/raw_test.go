package tensor

import (
	"testing"
)

// RawTensor Tests

func TestNewRawZeroFilled(t *testing.T) {
	raw, err := NewRaw(Shape{3, 2}, Float32)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if raw.NumElements() != 6 {
		t.Errorf("NumElements = %d, want 6", raw.NumElements())
	}
	if raw.ByteSize() != 24 {
		t.Errorf("ByteSize = %d, want 24", raw.ByteSize())
	}
	for i, v := range raw.AsFloat32() {
		if v != 0 {
			t.Errorf("element %d = %v, want 0", i, v)
		}
	}
}

func TestNewRawInvalidShape(t *testing.T) {
	if _, err := NewRaw(Shape{3, 0}, Float32); err == nil {
		t.Error("NewRaw with zero dimension should fail")
	}
	if _, err := NewRaw(Shape{-1}, Float32); err == nil {
		t.Error("NewRaw with negative dimension should fail")
	}
}

func TestRawTensorAsFloat32(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Float32)
	data := raw.AsFloat32()

	if len(data) != 6 {
		t.Errorf("AsFloat32 length = %d, want 6", len(data))
	}

	// Modify and verify zero-copy
	data[0] = 42
	if raw.AsFloat32()[0] != 42 {
		t.Error("AsFloat32 should return zero-copy slice")
	}
}

func TestRawTensorAsFloat16(t *testing.T) {
	raw, _ := NewRaw(Shape{4}, Float16)
	bits := raw.AsFloat16()

	if len(bits) != 4 {
		t.Errorf("AsFloat16 length = %d, want 4", len(bits))
	}

	bits[0] = Float32ToFloat16(1.5)
	if got := Float16ToFloat32(raw.AsFloat16()[0]); got != 1.5 {
		t.Errorf("round trip through AsFloat16 = %v, want 1.5", got)
	}
}

func TestRawTensorAsFloat32WrongDType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("AsFloat32 on Float64 tensor should panic")
		}
	}()

	raw, _ := NewRaw(Shape{2}, Float64)
	raw.AsFloat32()
}

func TestFromFloat32(t *testing.T) {
	raw, err := FromFloat32(Shape{2, 2}, []float32{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("FromFloat32 failed: %v", err)
	}

	got := raw.AsFloat32()
	want := []float32{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFromFloat32LengthMismatch(t *testing.T) {
	if _, err := FromFloat32(Shape{2, 2}, []float32{1, 2, 3}); err == nil {
		t.Error("FromFloat32 with short data should fail")
	}
}

func TestFromBytes(t *testing.T) {
	src, _ := FromFloat32(Shape{3}, []float32{1, 2, 3})

	raw, err := FromBytes(Shape{3}, Float32, src.Data())
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	if !raw.Equal(src) {
		t.Error("FromBytes tensor should equal source")
	}

	if _, err := FromBytes(Shape{3}, Float32, make([]byte, 8)); err == nil {
		t.Error("FromBytes with wrong byte length should fail")
	}
}

func TestRawTensorCloneIsDeep(t *testing.T) {
	raw, _ := FromFloat32(Shape{2}, []float32{1, 2})
	clone := raw.Clone()

	clone.AsFloat32()[0] = 99
	if raw.AsFloat32()[0] != 1 {
		t.Error("Clone should not share memory with the original")
	}
	if !clone.Shape().Equal(raw.Shape()) {
		t.Error("Clone shape mismatch")
	}
}

func TestRawTensorZero(t *testing.T) {
	raw, _ := FromFloat32(Shape{3}, []float32{1, 2, 3})
	raw.Zero()

	for i, v := range raw.AsFloat32() {
		if v != 0 {
			t.Errorf("element %d = %v after Zero, want 0", i, v)
		}
	}
}

func TestRawTensorEqual(t *testing.T) {
	a, _ := FromFloat32(Shape{2}, []float32{1, 2})
	b, _ := FromFloat32(Shape{2}, []float32{1, 2})
	c, _ := FromFloat32(Shape{2}, []float32{1, 3})
	d, _ := FromFloat32(Shape{1, 2}, []float32{1, 2})

	if !a.Equal(b) {
		t.Error("identical tensors should be equal")
	}
	if a.Equal(c) {
		t.Error("different values should not be equal")
	}
	if a.Equal(d) {
		t.Error("different shapes should not be equal")
	}
	if a.Equal(nil) {
		t.Error("nil should not be equal")
	}
}

// DataType Tests

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
	}{
		{Float32, 4},
		{Float16, 2},
		{Float64, 8},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
	}
}

func TestParseDataType(t *testing.T) {
	for _, dtype := range []DataType{Float32, Float16, Float64} {
		parsed, ok := ParseDataType(dtype.String())
		if !ok || parsed != dtype {
			t.Errorf("ParseDataType(%q) = %v, %v", dtype.String(), parsed, ok)
		}
	}

	if _, ok := ParseDataType("int8"); ok {
		t.Error("ParseDataType should reject unknown names")
	}
}
