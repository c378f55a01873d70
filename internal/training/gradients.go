package training

import (
	"math"

	"github.com/kiln-ml/kiln/internal/parallel"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// DefaultMaxGradNorm is the global norm gradients are clipped to when
// Utils.GradNormClip is set.
const DefaultMaxGradNorm float32 = 1.0

// Unscale divides every gradient by scale, undoing the loss scaling applied
// before the backward pass. A scale of 1 is a no-op. Nil tensors are
// skipped.
func Unscale(grads []*tensor.RawTensor, scale float32) {
	if scale == 1 {
		return
	}
	scaleGradients(grads, 1/scale)
}

// scaleGradients multiplies every gradient element by factor.
func scaleGradients(grads []*tensor.RawTensor, factor float32) {
	cfg := parallel.DefaultConfig()
	for _, g := range grads {
		if g == nil {
			continue
		}
		switch g.DType() {
		case tensor.Float32:
			data := g.AsFloat32()
			parallel.ForRange(len(data), func(start, end int) {
				for i := start; i < end; i++ {
					data[i] *= factor
				}
			}, cfg)
		case tensor.Float16:
			data := g.AsFloat16()
			parallel.ForRange(len(data), func(start, end int) {
				for i := start; i < end; i++ {
					data[i] = tensor.Float32ToFloat16(tensor.Float16ToFloat32(data[i]) * factor)
				}
			}, cfg)
		case tensor.Float64:
			data := g.AsFloat64()
			f := float64(factor)
			parallel.ForRange(len(data), func(start, end int) {
				for i := start; i < end; i++ {
					data[i] *= f
				}
			}, cfg)
		}
	}
}

// AllFinite reports whether every gradient element is finite. The scan
// stops at the first Inf or NaN; an overflowed step usually fails within
// the first tensor.
func AllFinite(grads []*tensor.RawTensor) bool {
	for _, g := range grads {
		if g == nil {
			continue
		}
		switch g.DType() {
		case tensor.Float32:
			for _, v := range g.AsFloat32() {
				f := float64(v)
				if math.IsInf(f, 0) || math.IsNaN(f) {
					return false
				}
			}
		case tensor.Float16:
			for _, h := range g.AsFloat16() {
				if !tensor.Float16IsFinite(h) {
					return false
				}
			}
		case tensor.Float64:
			for _, v := range g.AsFloat64() {
				if math.IsInf(v, 0) || math.IsNaN(v) {
					return false
				}
			}
		}
	}
	return true
}

// GradNorm returns the global L2 norm across all gradients. Squares
// accumulate in float64 so large fleets of float16 gradients do not lose
// precision.
func GradNorm(grads []*tensor.RawTensor) float32 {
	var sum float64
	for _, g := range grads {
		if g == nil {
			continue
		}
		switch g.DType() {
		case tensor.Float32:
			for _, v := range g.AsFloat32() {
				sum += float64(v) * float64(v)
			}
		case tensor.Float16:
			for _, h := range g.AsFloat16() {
				v := float64(tensor.Float16ToFloat32(h))
				sum += v * v
			}
		case tensor.Float64:
			for _, v := range g.AsFloat64() {
				sum += v * v
			}
		}
	}
	return float32(math.Sqrt(sum))
}

// ClipGradNorm scales gradients so their global L2 norm does not exceed
// maxNorm, and returns the norm measured before clipping. Gradients below
// the limit are untouched.
func ClipGradNorm(grads []*tensor.RawTensor, maxNorm float32) float32 {
	norm := GradNorm(grads)
	if norm <= maxNorm || norm == 0 {
		return norm
	}
	scaleGradients(grads, maxNorm/(norm+1e-6))
	return norm
}
