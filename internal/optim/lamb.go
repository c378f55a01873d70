package optim

import (
	"fmt"
	"math"
)

// LambConfig holds configuration for the Lamb optimizer family.
//
// Lamb extends Adam with a layer-wise trust ratio; RatioMin and RatioMax
// clamp it. Zero numeric fields select the defaults listed per field, and a
// fully zero clamp pair means unbounded. Start from DefaultLambConfig for
// the canonical configuration.
type LambConfig struct {
	LR               float32      // Learning rate (default: 0.001)
	Alpha            float32      // Running gradient average coefficient (default: 0.9)
	Beta             float32      // Running squared-gradient coefficient (default: 0.999)
	LambdaCoef       float32      // L2 regularization coefficient (default: 0.01)
	Epsilon          float32      // Stability term (default: 1e-6)
	MaxNormClip      float32      // Per-parameter gradient norm cap (default: 1.0)
	DoBiasCorrection bool         // Bias-correct moment estimates
	RatioMin         float32      // Lower trust-ratio clamp (default: unbounded)
	RatioMax         float32      // Upper trust-ratio clamp (default: unbounded)
	Groups           []ParamGroup // Optional per-group overrides
}

// DefaultLambConfig returns the canonical Lamb configuration.
func DefaultLambConfig() LambConfig {
	return LambConfig{
		LR:               0.001,
		Alpha:            0.9,
		Beta:             0.999,
		LambdaCoef:       0.01,
		Epsilon:          1e-6,
		MaxNormClip:      1.0,
		DoBiasCorrection: true,
		RatioMin:         -math.MaxFloat32,
		RatioMax:         math.MaxFloat32,
	}
}

// NewLamb builds a Lamb optimizer config.
func NewLamb(config LambConfig) (*Config, error) {
	// Set defaults
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Alpha == 0 {
		config.Alpha = 0.9
	}
	if config.Beta == 0 {
		config.Beta = 0.999
	}
	if config.LambdaCoef == 0 {
		config.LambdaCoef = 0.01
	}
	if config.Epsilon == 0 {
		config.Epsilon = 1e-6
	}
	if config.MaxNormClip == 0 {
		config.MaxNormClip = 1.0
	}
	if config.RatioMin == 0 && config.RatioMax == 0 {
		config.RatioMin = -math.MaxFloat32
		config.RatioMax = math.MaxFloat32
	}

	if err := validateAdamFields("lamb", config.LR, config.Alpha, config.Beta,
		config.LambdaCoef, config.Epsilon, config.MaxNormClip); err != nil {
		return nil, err
	}
	if config.RatioMin > config.RatioMax {
		return nil, fmt.Errorf("lamb: ratio_min %v exceeds ratio_max %v", config.RatioMin, config.RatioMax)
	}
	if err := validateGroups(config.Groups); err != nil {
		return nil, fmt.Errorf("lamb: %w", err)
	}

	return &Config{
		Name: LambOptimizer,
		Defaults: Hyperparams{
			LR:               config.LR,
			Alpha:            config.Alpha,
			Beta:             config.Beta,
			LambdaCoef:       config.LambdaCoef,
			Epsilon:          config.Epsilon,
			MaxNormClip:      config.MaxNormClip,
			DoBiasCorrection: config.DoBiasCorrection,
			RatioMin:         config.RatioMin,
			RatioMax:         config.RatioMax,
		},
		Groups: config.Groups,
	}, nil
}
