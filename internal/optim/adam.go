package optim

import "fmt"

// AdamConfig holds configuration for the Adam optimizer family.
//
// Zero numeric fields select the defaults listed per field. The zero value
// of DoBiasCorrection is false; start from DefaultAdamConfig to get the
// canonical configuration with bias correction enabled.
//
// Example:
//
//	cfg := optim.DefaultAdamConfig()
//	cfg.LR = 0.0005
//	adam, err := optim.NewAdam(cfg)
type AdamConfig struct {
	LR               float32      // Learning rate (default: 0.001)
	Alpha            float32      // Running gradient average coefficient (default: 0.9)
	Beta             float32      // Running squared-gradient coefficient (default: 0.999)
	LambdaCoef       float32      // L2 regularization coefficient (default: 0.01)
	Epsilon          float32      // Stability term (default: 1e-6)
	MaxNormClip      float32      // Per-parameter gradient norm cap (default: 1.0)
	DoBiasCorrection bool         // Bias-correct moment estimates
	Groups           []ParamGroup // Optional per-group overrides
}

// DefaultAdamConfig returns the canonical Adam configuration.
func DefaultAdamConfig() AdamConfig {
	return AdamConfig{
		LR:               0.001,
		Alpha:            0.9,
		Beta:             0.999,
		LambdaCoef:       0.01,
		Epsilon:          1e-6,
		MaxNormClip:      1.0,
		DoBiasCorrection: true,
	}
}

// NewAdam builds an Adam optimizer config.
func NewAdam(config AdamConfig) (*Config, error) {
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

	if err := validateAdamFields("adam", config.LR, config.Alpha, config.Beta,
		config.LambdaCoef, config.Epsilon, config.MaxNormClip); err != nil {
		return nil, err
	}
	if err := validateGroups(config.Groups); err != nil {
		return nil, fmt.Errorf("adam: %w", err)
	}

	return &Config{
		Name: AdamOptimizer,
		Defaults: Hyperparams{
			LR:               config.LR,
			Alpha:            config.Alpha,
			Beta:             config.Beta,
			LambdaCoef:       config.LambdaCoef,
			Epsilon:          config.Epsilon,
			MaxNormClip:      config.MaxNormClip,
			DoBiasCorrection: config.DoBiasCorrection,
		},
		Groups: config.Groups,
	}, nil
}

// validateAdamFields checks the value ranges shared by Adam and Lamb.
func validateAdamFields(family string, lr, alpha, beta, lambdaCoef, epsilon, maxNormClip float32) error {
	if lr < 0 {
		return fmt.Errorf("%s: learning rate must be non-negative, got %v", family, lr)
	}
	if alpha < 0 || alpha >= 1 {
		return fmt.Errorf("%s: alpha must be in [0, 1), got %v", family, alpha)
	}
	if beta < 0 || beta >= 1 {
		return fmt.Errorf("%s: beta must be in [0, 1), got %v", family, beta)
	}
	if lambdaCoef < 0 {
		return fmt.Errorf("%s: lambda_coef must be non-negative, got %v", family, lambdaCoef)
	}
	if epsilon <= 0 {
		return fmt.Errorf("%s: epsilon must be positive, got %v", family, epsilon)
	}
	if maxNormClip <= 0 {
		return fmt.Errorf("%s: max_norm_clip must be positive, got %v", family, maxNormClip)
	}
	return nil
}
