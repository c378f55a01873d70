package training

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/amp"
	"github.com/kiln-ml/kiln/internal/serialization"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// ScalerState is implemented by loss scalers whose mutable state can be
// snapshotted and restored. Checkpoints use it through a type assertion so
// custom scalers without restorable state still work; their checkpoints
// record the bare scale.
type ScalerState interface {
	State() amp.State
	Restore(amp.State) error
}

// Checkpoint is what LoadCheckpoint reports after restoring a session.
type Checkpoint struct {
	State    serialization.TrainState
	Metadata map[string]string
}

// SaveCheckpoint writes the model parameters and the session state to a
// .kiln file.
//
// Checkpoints snapshot at accumulation boundaries; gradients in a partial
// window exist only on the parameters and would be lost, so saving mid
// window fails.
func SaveCheckpoint[B any](path string, t *Trainer[B], metadata map[string]string) error {
	if t.accumCount != 0 {
		return fmt.Errorf("checkpoint: %d micro steps into an accumulation window, save after a boundary step",
			t.accumCount)
	}

	params := t.model.Parameters()
	stateDict := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		stateDict[p.Name()] = p.Tensor()
	}

	state := &serialization.TrainState{
		RunID:            t.runID,
		Epoch:            t.epoch,
		Step:             t.step,
		OptimizationStep: t.optimStep,
		SkippedSteps:     t.stats.SkippedSteps,
		OptimizerName:    t.cfg.Name,
		LR:               t.cfg.LR(),
	}
	if t.scaler != nil {
		state.MixedPrecision = true
		if ss, ok := t.scaler.(ScalerState); ok {
			st := ss.State()
			state.LossScale = st.LossScale
			state.StableSteps = st.StableSteps
		} else {
			state.LossScale = t.scaler.LossScale()
		}
	}

	if err := serialization.WriteCheckpointFile(path, stateDict, state, metadata); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores a session from a .kiln file written by
// SaveCheckpoint.
//
// The trainer's model must declare the same parameters with the same
// shapes and dtypes; parameter bytes, step counters and loss scale state
// are restored in place. A full-precision checkpoint loaded into a mixed
// precision session leaves the scaler at its current state.
func LoadCheckpoint[B any](path string, t *Trainer[B]) (*Checkpoint, error) {
	stateDict, header, err := serialization.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	state := header.TrainState
	if state == nil {
		return nil, fmt.Errorf("checkpoint: %s carries no training state", path)
	}

	params := t.model.Parameters()
	if len(stateDict) != len(params) {
		return nil, fmt.Errorf("checkpoint: %d tensors for a model with %d parameters",
			len(stateDict), len(params))
	}
	for _, p := range params {
		saved, ok := stateDict[p.Name()]
		if !ok {
			return nil, fmt.Errorf("checkpoint: parameter %q not in file", p.Name())
		}
		current := p.Tensor()
		if saved.DType() != current.DType() || !saved.Shape().Equal(current.Shape()) {
			return nil, fmt.Errorf("checkpoint: parameter %q is %s %v, file has %s %v",
				p.Name(), current.DType(), current.Shape(), saved.DType(), saved.Shape())
		}
	}

	if state.MixedPrecision {
		if t.scaler == nil {
			return nil, fmt.Errorf("checkpoint: file carries loss scale state but mixed precision is disabled")
		}
		ss, ok := t.scaler.(ScalerState)
		if !ok {
			return nil, fmt.Errorf("checkpoint: loss scaler %T cannot restore state", t.scaler)
		}
		if err := ss.Restore(amp.State{LossScale: state.LossScale, StableSteps: state.StableSteps}); err != nil {
			return nil, fmt.Errorf("checkpoint: %w", err)
		}
	}

	// Shapes verified above; now the restore is all-or-nothing.
	for _, p := range params {
		copy(p.Tensor().Data(), stateDict[p.Name()].Data())
		p.ZeroGrad()
	}

	t.epoch = state.Epoch
	t.step = state.Step
	t.optimStep = state.OptimizationStep
	t.accumCount = 0
	t.stats = Stats{
		TotalSteps:   state.Step,
		AppliedSteps: state.OptimizationStep,
		SkippedSteps: state.SkippedSteps,
	}

	return &Checkpoint{State: *state, Metadata: header.Metadata}, nil
}
