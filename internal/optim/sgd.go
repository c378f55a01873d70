package optim

import "fmt"

// SGDConfig holds configuration for the SGD optimizer family.
//
// Example:
//
//	cfg, err := optim.NewSGD(optim.SGDConfig{LR: 0.01})
type SGDConfig struct {
	LR float32 // Learning rate (default: 0.001)
}

// NewSGD builds an SGD optimizer config.
//
// SGD does not support parameter groups: every parameter trains with the
// same learning rate. Use Adam or Lamb for per-group hyperparameters.
func NewSGD(config SGDConfig) (*Config, error) {
	// Set defaults
	if config.LR == 0 {
		config.LR = 0.001
	}

	if config.LR < 0 {
		return nil, fmt.Errorf("sgd: learning rate must be non-negative, got %v", config.LR)
	}

	return &Config{
		Name:     SGDOptimizer,
		Defaults: Hyperparams{LR: config.LR},
	}, nil
}
