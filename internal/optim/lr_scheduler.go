package optim

import (
	"fmt"
	"math"
)

// LRScheduler adjusts the learning rate as training progresses.
//
// GetLR receives the zero-based optimization step and the base rate from
// the optimizer config, and returns the rate for that step. Implementations
// are pure functions of the step; the trainer calls GetLR before every
// optimization step.
type LRScheduler interface {
	GetLR(step int, baseLR float32) float32
}

// warmupProgress returns step/totalSteps clamped to [0, 1].
func warmupProgress(step, totalSteps int) float64 {
	if step <= 0 {
		return 0
	}
	x := float64(step) / float64(totalSteps)
	if x > 1 {
		return 1
	}
	return x
}

func validateWarmup(totalSteps int, warmupProportion float64) error {
	if totalSteps <= 0 {
		return fmt.Errorf("lr scheduler: total steps must be positive, got %d", totalSteps)
	}
	if warmupProportion < 0 || warmupProportion >= 1 {
		return fmt.Errorf("lr scheduler: warmup proportion must be in [0, 1), got %v", warmupProportion)
	}
	return nil
}

// ConstantWarmup ramps the rate linearly over the warmup fraction of
// training, then holds it at the base rate.
type ConstantWarmup struct {
	totalSteps int
	warmup     float64
}

// NewConstantWarmup creates a constant schedule with linear warmup.
func NewConstantWarmup(totalSteps int, warmupProportion float64) (*ConstantWarmup, error) {
	if err := validateWarmup(totalSteps, warmupProportion); err != nil {
		return nil, err
	}
	return &ConstantWarmup{totalSteps: totalSteps, warmup: warmupProportion}, nil
}

// GetLR returns the learning rate for the given step.
func (s *ConstantWarmup) GetLR(step int, baseLR float32) float32 {
	x := warmupProgress(step, s.totalSteps)
	if x < s.warmup {
		return baseLR * float32(x/s.warmup)
	}
	return baseLR
}

// LinearWarmup ramps the rate linearly over the warmup fraction, then
// decays it linearly to zero at the end of training.
type LinearWarmup struct {
	totalSteps int
	warmup     float64
}

// NewLinearWarmup creates a linear decay schedule with linear warmup.
func NewLinearWarmup(totalSteps int, warmupProportion float64) (*LinearWarmup, error) {
	if err := validateWarmup(totalSteps, warmupProportion); err != nil {
		return nil, err
	}
	return &LinearWarmup{totalSteps: totalSteps, warmup: warmupProportion}, nil
}

// GetLR returns the learning rate for the given step.
func (s *LinearWarmup) GetLR(step int, baseLR float32) float32 {
	x := warmupProgress(step, s.totalSteps)
	if x < s.warmup {
		return baseLR * float32(x/s.warmup)
	}
	return baseLR * float32(math.Max((x-1)/(s.warmup-1), 0))
}

// CosineWarmup ramps the rate linearly over the warmup fraction, then
// follows a cosine decay over the remaining steps. Cycles controls how much
// of the cosine period the decay sweeps; the default 0.5 decays from the
// base rate to zero.
type CosineWarmup struct {
	totalSteps int
	warmup     float64
	cycles     float64
}

// NewCosineWarmup creates a cosine decay schedule with linear warmup.
// A non-positive cycles selects the default of 0.5.
func NewCosineWarmup(totalSteps int, warmupProportion, cycles float64) (*CosineWarmup, error) {
	if err := validateWarmup(totalSteps, warmupProportion); err != nil {
		return nil, err
	}
	if cycles <= 0 {
		cycles = 0.5
	}
	return &CosineWarmup{totalSteps: totalSteps, warmup: warmupProportion, cycles: cycles}, nil
}

// GetLR returns the learning rate for the given step.
func (s *CosineWarmup) GetLR(step int, baseLR float32) float32 {
	x := warmupProgress(step, s.totalSteps)
	if x < s.warmup {
		return baseLR * float32(x/s.warmup)
	}
	progress := (x - s.warmup) / (1 - s.warmup)
	return baseLR * float32(0.5*(1+math.Cos(math.Pi*s.cycles*2*progress)))
}

// PolyWarmup ramps the rate linearly over the warmup fraction, then decays
// it polynomially to zero. Power 1 reproduces LinearWarmup's decay.
type PolyWarmup struct {
	totalSteps int
	warmup     float64
	power      float64
}

// NewPolyWarmup creates a polynomial decay schedule with linear warmup.
// A non-positive power selects the default of 1.
func NewPolyWarmup(totalSteps int, warmupProportion, power float64) (*PolyWarmup, error) {
	if err := validateWarmup(totalSteps, warmupProportion); err != nil {
		return nil, err
	}
	if power <= 0 {
		power = 1
	}
	return &PolyWarmup{totalSteps: totalSteps, warmup: warmupProportion, power: power}, nil
}

// GetLR returns the learning rate for the given step.
func (s *PolyWarmup) GetLR(step int, baseLR float32) float32 {
	x := warmupProgress(step, s.totalSteps)
	if x < s.warmup {
		return baseLR * float32(x/s.warmup)
	}
	progress := (x - s.warmup) / (1 - s.warmup)
	return baseLR * float32(math.Pow(1-progress, s.power))
}
