package tensor

import (
	"fmt"
	"math"
)

// IEEE 754 half precision: 1 sign bit, 5 exponent bits, 10 mantissa bits.
// Largest finite value is 65504; magnitudes below 2^-14 flush to zero here
// (subnormals are not produced or decoded).
const (
	MaxFloat16Value = 65504.0

	float16SignMask = 0x8000
	float16ExpMask  = 0x7C00
	float16Inf      = 0x7C00
	float16NaN      = 0x7E00
)

// Float32ToFloat16 converts a float32 to half-precision bits.
// Values above the half range become infinities, values below the smallest
// normal half flush to signed zero.
func Float32ToFloat16(f float32) uint16 {
	if math.IsNaN(float64(f)) {
		return float16NaN
	}

	bits := math.Float32bits(f)
	sign := uint16(bits >> 16 & float16SignMask)
	bits &= 0x7FFFFFFF

	if bits >= 0x47800000 { // |f| >= 65520, rounds out of half range
		return sign | float16Inf
	}
	if bits < 0x38800000 { // |f| < 2^-14, below smallest normal half
		return sign
	}

	exp := (bits >> 23) - 127 + 15
	mantissa := (bits >> 13) & 0x3FF
	return sign | uint16(exp<<10) | uint16(mantissa)
}

// Float16ToFloat32 converts half-precision bits to a float32.
func Float16ToFloat32(h uint16) float32 {
	sign := uint32(h&float16SignMask) << 16
	exp := uint32(h&float16ExpMask) >> 10
	mantissa := uint32(h & 0x3FF)

	if exp == 0x1F {
		if mantissa == 0 {
			return math.Float32frombits(sign | 0x7F800000) // Infinity
		}
		return math.Float32frombits(sign | 0x7FC00000) // NaN
	}
	if exp == 0 {
		// Zero, or a subnormal we flush to signed zero.
		return math.Float32frombits(sign)
	}

	return math.Float32frombits(sign | (exp-15+127)<<23 | mantissa<<13)
}

// Float16IsFinite reports whether half-precision bits encode a finite value.
func Float16IsFinite(h uint16) bool {
	return h&float16ExpMask != float16ExpMask
}

// Cast returns a copy of raw converted to dtype. Casting to the same dtype
// still copies. Conversions route through float32, so float64 values outside
// the float32 range become infinities before any half conversion.
func Cast(raw *RawTensor, dtype DataType) (*RawTensor, error) {
	out, err := NewRaw(raw.Shape(), dtype)
	if err != nil {
		return nil, err
	}
	if raw.DType() == dtype {
		copy(out.Data(), raw.Data())
		return out, nil
	}

	n := raw.NumElements()
	read := readFloat32Func(raw)
	write, err := writeFloat32Func(out)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		write(i, read(i))
	}
	return out, nil
}

// readFloat32Func returns an element reader that widens to float32.
func readFloat32Func(raw *RawTensor) func(i int) float32 {
	switch raw.DType() {
	case Float32:
		vals := raw.AsFloat32()
		return func(i int) float32 { return vals[i] }
	case Float16:
		bits := raw.AsFloat16()
		return func(i int) float32 { return Float16ToFloat32(bits[i]) }
	case Float64:
		vals := raw.AsFloat64()
		return func(i int) float32 { return float32(vals[i]) }
	default:
		panic(fmt.Sprintf("unsupported dtype %s", raw.DType()))
	}
}

// writeFloat32Func returns an element writer that narrows from float32.
func writeFloat32Func(raw *RawTensor) (func(i int, v float32), error) {
	switch raw.DType() {
	case Float32:
		vals := raw.AsFloat32()
		return func(i int, v float32) { vals[i] = v }, nil
	case Float16:
		bits := raw.AsFloat16()
		return func(i int, v float32) { bits[i] = Float32ToFloat16(v) }, nil
	case Float64:
		vals := raw.AsFloat64()
		return func(i int, v float32) { vals[i] = float64(v) }, nil
	default:
		return nil, fmt.Errorf("unsupported cast target dtype %s", raw.DType())
	}
}
