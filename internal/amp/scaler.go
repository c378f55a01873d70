// Package amp implements loss scaling for mixed precision training.
//
// Training in float16 underflows small gradient magnitudes. Multiplying the
// loss by a scale factor before backpropagation shifts the whole gradient
// distribution into the representable range; the session divides the scale
// back out before the optimizer update. DynamicLossScaler adjusts the factor
// from step feedback: doubling after a window of stable steps, halving when
// a gradient overflows.
package amp

// LossScaler is the loss-scaling strategy a mixed precision session drives.
//
// The engine reads LossScale at the start of every step and applies it to
// the loss before backpropagation. After the step, Update consumes the
// step's record; sessions do this automatically for strategies that report
// AutomaticUpdate, manual strategies are updated by their owner.
type LossScaler interface {
	// LossScale returns the multiplier currently applied to the loss.
	LossScale() float32

	// Update consumes the outcome of the last step and adjusts internal
	// state. It fails when the record has no finiteness verdict.
	Update(info *TrainStepInfo) error

	// Reset restores the scaler to its construction-time state.
	Reset()

	// AutomaticUpdate reports whether the session should call Update after
	// every step.
	AutomaticUpdate() bool
}

// UnimplementedLossScaler is a LossScaler whose operations fail or do
// nothing. Embed it in a custom strategy to satisfy the interface while
// implementing methods incrementally.
type UnimplementedLossScaler struct{}

// Compile-time check that UnimplementedLossScaler implements LossScaler.
var _ LossScaler = UnimplementedLossScaler{}

// LossScale returns zero. Override it in the embedding strategy.
func (UnimplementedLossScaler) LossScale() float32 { return 0 }

// Update reports ErrNotImplemented.
func (UnimplementedLossScaler) Update(*TrainStepInfo) error { return ErrNotImplemented }

// Reset does nothing.
func (UnimplementedLossScaler) Reset() {}

// AutomaticUpdate returns false: a strategy without an Update must not be
// driven by the session.
func (UnimplementedLossScaler) AutomaticUpdate() bool { return false }
