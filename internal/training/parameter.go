package training

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Parameter is a named trainable tensor.
//
// The engine writes gradients onto parameters during the backward pass;
// the session reads them for scaling, finiteness checks and clipping, and
// clears them after an optimizer update.
//
// Example:
//
//	weight := training.NewParameter("linear1.weight", weightTensor)
//	w := weight.Tensor()
//	grad := weight.Grad() // nil until a backward pass ran
type Parameter struct {
	name   string            // Parameter name (e.g., "linear1.weight")
	tensor *tensor.RawTensor // The parameter tensor
	grad   *tensor.RawTensor // Gradient tensor, written by the engine
}

// NewParameter creates a trainable parameter. The tensor should be
// initialized before the parameter is created; the gradient is allocated
// by the engine on the first backward pass.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.RawTensor {
	return p.tensor
}

// Grad returns the gradient tensor, or nil if no backward pass has run
// since the last ZeroGrad.
func (p *Parameter) Grad() *tensor.RawTensor {
	return p.grad
}

// SetGrad installs the gradient tensor. Engines call this during the
// backward pass; accumulating engines add into the existing tensor instead
// of replacing it.
func (p *Parameter) SetGrad(grad *tensor.RawTensor) {
	p.grad = grad
}

// ZeroGrad drops the gradient. The session calls this after every applied
// or skipped optimizer step so stale gradients never leak into the next
// accumulation window.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// Model exposes the trainable parameters of a network.
//
// The session only needs enumeration; forward and backward live in the
// engine. Frozen parameters are still listed here and filtered by name
// through the options.
type Model interface {
	// Parameters returns all parameters in a stable order.
	Parameters() []*Parameter
}
