// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/kiln-ml/kiln/internal/optim"
)

// Config describes one optimizer instance for the runtime. Build it with
// NewSGD, NewAdam or NewLamb.
type Config = optim.Config

// Hyperparams holds the numeric knobs an optimizer family understands.
type Hyperparams = optim.Hyperparams

// ParamGroup selects named parameters and overrides chosen
// hyperparameters for them.
type ParamGroup = optim.ParamGroup

// Optimizer family names understood by the runtime.
const (
	SGDOptimizer  = optim.SGDOptimizer
	AdamOptimizer = optim.AdamOptimizer
	LambOptimizer = optim.LambOptimizer
)

// Hyperparameter keys accepted in ParamGroup overrides.
const (
	KeyLR          = optim.KeyLR
	KeyAlpha       = optim.KeyAlpha
	KeyBeta        = optim.KeyBeta
	KeyLambdaCoef  = optim.KeyLambdaCoef
	KeyEpsilon     = optim.KeyEpsilon
	KeyMaxNormClip = optim.KeyMaxNormClip
	KeyRatioMin    = optim.KeyRatioMin
	KeyRatioMax    = optim.KeyRatioMax
)

// SGD (Stochastic Gradient Descent)

// SGDConfig contains configuration for the SGD family.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer config.
//
// Example:
//
//	cfg, err := optim.NewSGD(optim.SGDConfig{LR: 0.01})
func NewSGD(config SGDConfig) (*Config, error) {
	return optim.NewSGD(config)
}

// Adam (Adaptive Moment Estimation)

// AdamConfig contains configuration for the Adam family.
type AdamConfig = optim.AdamConfig

// DefaultAdamConfig returns the canonical Adam configuration with bias
// correction enabled.
func DefaultAdamConfig() AdamConfig {
	return optim.DefaultAdamConfig()
}

// NewAdam creates an Adam optimizer config.
//
// Example:
//
//	cfg, err := optim.NewAdam(optim.AdamConfig{
//	    LR:      0.001,
//	    Alpha:   0.9,
//	    Beta:    0.999,
//	    Epsilon: 1e-6,
//	})
func NewAdam(config AdamConfig) (*Config, error) {
	return optim.NewAdam(config)
}

// Lamb (Layer-wise Adaptive Moments)

// LambConfig contains configuration for the Lamb family.
type LambConfig = optim.LambConfig

// DefaultLambConfig returns the canonical Lamb configuration.
func DefaultLambConfig() LambConfig {
	return optim.DefaultLambConfig()
}

// NewLamb creates a Lamb optimizer config.
func NewLamb(config LambConfig) (*Config, error) {
	return optim.NewLamb(config)
}

// Learning rate schedules

// LRScheduler adjusts the learning rate as training progresses.
type LRScheduler = optim.LRScheduler

// ConstantWarmup ramps the rate linearly over the warmup fraction, then
// holds it at the base rate.
type ConstantWarmup = optim.ConstantWarmup

// NewConstantWarmup creates a constant schedule with linear warmup.
func NewConstantWarmup(totalSteps int, warmupProportion float64) (*ConstantWarmup, error) {
	return optim.NewConstantWarmup(totalSteps, warmupProportion)
}

// LinearWarmup ramps up over the warmup fraction, then decays linearly to
// zero at the end of training.
type LinearWarmup = optim.LinearWarmup

// NewLinearWarmup creates a linear decay schedule with linear warmup.
//
// Example:
//
//	sched, err := optim.NewLinearWarmup(10000, 0.1)
func NewLinearWarmup(totalSteps int, warmupProportion float64) (*LinearWarmup, error) {
	return optim.NewLinearWarmup(totalSteps, warmupProportion)
}

// CosineWarmup ramps up over the warmup fraction, then follows a cosine
// decay over the remaining steps.
type CosineWarmup = optim.CosineWarmup

// NewCosineWarmup creates a cosine decay schedule with linear warmup.
// A non-positive cycles selects the default of 0.5.
func NewCosineWarmup(totalSteps int, warmupProportion, cycles float64) (*CosineWarmup, error) {
	return optim.NewCosineWarmup(totalSteps, warmupProportion, cycles)
}

// PolyWarmup ramps up over the warmup fraction, then decays polynomially
// to zero. Power 1 reproduces LinearWarmup's decay.
type PolyWarmup = optim.PolyWarmup

// NewPolyWarmup creates a polynomial decay schedule with linear warmup.
// A non-positive power selects the default of 1.
func NewPolyWarmup(totalSteps int, warmupProportion, power float64) (*PolyWarmup, error) {
	return optim.NewPolyWarmup(totalSteps, warmupProportion, power)
}
