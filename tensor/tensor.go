// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// DataType represents runtime type information for tensors.
type DataType = tensor.DataType

// Supported data types.
const (
	Float32 DataType = tensor.Float32
	Float16 DataType = tensor.Float16
	Float64 DataType = tensor.Float64
)

// MaxFloat16Value is the largest finite half-precision value.
const MaxFloat16Value = tensor.MaxFloat16Value

// ParseDataType maps a dtype name back to its DataType. It is the inverse
// of DataType.String.
func ParseDataType(s string) (DataType, bool) {
	return tensor.ParseDataType(s)
}

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} is a 3D tensor with 24 elements.
type Shape = tensor.Shape

// RawTensor is a flat, host-memory tensor: a byte buffer plus shape and
// runtime type information. It owns its buffer; Clone performs a deep
// copy.
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
//	data := raw.AsFloat32() // zero-copy view
type RawTensor = tensor.RawTensor

// NewRaw creates a zero-filled RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// FromFloat32 creates a Float32 RawTensor initialized with values.
// The number of values must match the shape's element count.
func FromFloat32(shape Shape, values []float32) (*RawTensor, error) {
	return tensor.FromFloat32(shape, values)
}

// FromBytes creates a RawTensor that adopts data as its buffer.
// The byte length must match shape and dtype exactly.
func FromBytes(shape Shape, dtype DataType, data []byte) (*RawTensor, error) {
	return tensor.FromBytes(shape, dtype, data)
}

// Cast returns a copy of raw converted to dtype. Conversions route through
// float32; values outside the target range saturate to infinities.
func Cast(raw *RawTensor, dtype DataType) (*RawTensor, error) {
	return tensor.Cast(raw, dtype)
}

// Float32ToFloat16 converts a float32 to IEEE 754 half-precision bits.
// Values above the half range become infinities.
func Float32ToFloat16(f float32) uint16 {
	return tensor.Float32ToFloat16(f)
}

// Float16ToFloat32 converts half-precision bits to a float32.
func Float16ToFloat32(h uint16) float32 {
	return tensor.Float16ToFloat32(h)
}

// Float16IsFinite reports whether half-precision bits encode a finite
// value.
func Float16IsFinite(h uint16) bool {
	return tensor.Float16IsFinite(h)
}
