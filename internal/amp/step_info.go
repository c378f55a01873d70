package amp

import "fmt"

// TrainStepInfo is a snapshot of one training step's outcome.
//
// The training session writes it once per step and hands it read-only to
// the loss scaler. AllFinite stays nil until a gradient finiteness check
// has run; full precision steps never run one.
type TrainStepInfo struct {
	AllFinite *bool // Whether every gradient was finite; nil means not checked.
	Epoch     int   // Zero-based epoch the step belongs to.
	Step      int   // Zero-based step counter within the run.
}

// NewTrainStepInfo creates a validated step record.
// Pass nil allFinite when no finiteness check has run.
func NewTrainStepInfo(allFinite *bool, epoch, step int) (*TrainStepInfo, error) {
	if epoch < 0 {
		return nil, fmt.Errorf("train step info: epoch must be non-negative, got %d", epoch)
	}
	if step < 0 {
		return nil, fmt.Errorf("train step info: step must be non-negative, got %d", step)
	}
	return &TrainStepInfo{AllFinite: allFinite, Epoch: epoch, Step: step}, nil
}

// Finite reports whether every gradient of the step is known finite.
func (i *TrainStepInfo) Finite() bool {
	return i != nil && i.AllFinite != nil && *i.AllFinite
}

// Overflowed reports whether the step is known to have produced a
// non-finite gradient.
func (i *TrainStepInfo) Overflowed() bool {
	return i != nil && i.AllFinite != nil && !*i.AllFinite
}
