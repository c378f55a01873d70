// Package optim describes optimizer configuration for the Kiln training layer.
//
// A Config names the optimizer family, carries its default hyperparameters
// and optionally overrides them for selected parameter groups. The runtime
// engine owns the update rules themselves; this package validates the knobs
// and resolves which values apply to which parameter.
package optim

import "fmt"

// Optimizer family names understood by the runtime.
const (
	SGDOptimizer  = "SGDOptimizer"
	AdamOptimizer = "AdamOptimizer"
	LambOptimizer = "LambOptimizer"
)

// Hyperparameter keys accepted in ParamGroup overrides.
const (
	KeyLR          = "lr"
	KeyAlpha       = "alpha"
	KeyBeta        = "beta"
	KeyLambdaCoef  = "lambda_coef"
	KeyEpsilon     = "epsilon"
	KeyMaxNormClip = "max_norm_clip"
	KeyRatioMin    = "ratio_min"
	KeyRatioMax    = "ratio_max"
)

// Hyperparams holds the numeric knobs an optimizer family understands.
// Families ignore fields they have no use for: SGD reads only LR, and the
// trust-ratio clamp applies to Lamb alone.
type Hyperparams struct {
	LR               float32 // Learning rate.
	Alpha            float32 // Coefficient for the running gradient average.
	Beta             float32 // Coefficient for the running squared-gradient average.
	LambdaCoef       float32 // L2 regularization coefficient.
	Epsilon          float32 // Stability term added to denominators.
	MaxNormClip      float32 // Per-parameter gradient norm cap applied by the runtime.
	DoBiasCorrection bool    // Whether moment estimates are bias-corrected.
	RatioMin         float32 // Lower trust-ratio clamp (Lamb).
	RatioMax         float32 // Upper trust-ratio clamp (Lamb).
}

// ParamGroup selects named parameters and overrides chosen hyperparameters
// for them. Override keys are the Key* constants; absent keys inherit the
// config defaults. A parameter may belong to at most one group.
type ParamGroup struct {
	Params    []string
	Overrides map[string]float32
}

// Config describes one optimizer instance for the runtime.
//
// Build it with NewSGD, NewAdam or NewLamb; the constructors fill defaults
// and validate. Config values are read-only after construction.
type Config struct {
	Name     string
	Defaults Hyperparams
	Groups   []ParamGroup
}

// LR returns the default learning rate.
// Schedulers treat it as the base rate to scale.
func (c *Config) LR() float32 {
	return c.Defaults.LR
}

// HyperparamsFor resolves the hyperparameters for a named parameter by
// applying the overrides of the group that contains it, if any.
func (c *Config) HyperparamsFor(param string) Hyperparams {
	hp := c.Defaults
	for _, g := range c.Groups {
		for _, name := range g.Params {
			if name != param {
				continue
			}
			applyOverrides(&hp, g.Overrides)
			return hp
		}
	}
	return hp
}

func applyOverrides(hp *Hyperparams, overrides map[string]float32) {
	for key, v := range overrides {
		switch key {
		case KeyLR:
			hp.LR = v
		case KeyAlpha:
			hp.Alpha = v
		case KeyBeta:
			hp.Beta = v
		case KeyLambdaCoef:
			hp.LambdaCoef = v
		case KeyEpsilon:
			hp.Epsilon = v
		case KeyMaxNormClip:
			hp.MaxNormClip = v
		case KeyRatioMin:
			hp.RatioMin = v
		case KeyRatioMax:
			hp.RatioMax = v
		}
	}
}

// validateGroups checks group structure: every group names at least one
// parameter, no parameter appears twice, and overrides use known keys with
// values in range.
func validateGroups(groups []ParamGroup) error {
	seen := make(map[string]struct{})
	for i, g := range groups {
		if len(g.Params) == 0 {
			return fmt.Errorf("param group %d: no parameters named", i)
		}
		for _, name := range g.Params {
			if name == "" {
				return fmt.Errorf("param group %d: empty parameter name", i)
			}
			if _, dup := seen[name]; dup {
				return fmt.Errorf("param group %d: parameter %q appears in more than one group", i, name)
			}
			seen[name] = struct{}{}
		}
		for key, v := range g.Overrides {
			if err := validateOverride(key, v); err != nil {
				return fmt.Errorf("param group %d: %w", i, err)
			}
		}
	}
	return nil
}

func validateOverride(key string, v float32) error {
	switch key {
	case KeyLR:
		if v < 0 {
			return fmt.Errorf("learning rate must be non-negative, got %v", v)
		}
	case KeyAlpha, KeyBeta:
		if v < 0 || v >= 1 {
			return fmt.Errorf("%s must be in [0, 1), got %v", key, v)
		}
	case KeyEpsilon:
		if v <= 0 {
			return fmt.Errorf("epsilon must be positive, got %v", v)
		}
	case KeyMaxNormClip:
		if v <= 0 {
			return fmt.Errorf("max_norm_clip must be positive, got %v", v)
		}
	case KeyLambdaCoef:
		if v < 0 {
			return fmt.Errorf("lambda_coef must be non-negative, got %v", v)
		}
	case KeyRatioMin, KeyRatioMax:
		// Any finite value is a valid clamp bound.
	default:
		return fmt.Errorf("unknown hyperparameter %q", key)
	}
	return nil
}
