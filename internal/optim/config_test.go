package optim_test

import (
	"math"
	"testing"

	"github.com/kiln-ml/kiln/internal/optim"
)

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

// TestSGD_Defaults tests that the zero config selects the default rate.
func TestSGD_Defaults(t *testing.T) {
	cfg, err := optim.NewSGD(optim.SGDConfig{})
	if err != nil {
		t.Fatalf("NewSGD failed: %v", err)
	}

	if cfg.Name != optim.SGDOptimizer {
		t.Errorf("name = %q, want %q", cfg.Name, optim.SGDOptimizer)
	}
	if !floatEqual(cfg.LR(), 0.001, 1e-9) {
		t.Errorf("default lr = %f, want 0.001", cfg.LR())
	}
	if len(cfg.Groups) != 0 {
		t.Errorf("sgd config should carry no param groups, got %d", len(cfg.Groups))
	}
}

func TestSGD_RejectsNegativeLR(t *testing.T) {
	if _, err := optim.NewSGD(optim.SGDConfig{LR: -0.1}); err == nil {
		t.Error("negative learning rate should fail")
	}
}

// TestAdam_Defaults tests default filling from a zero config.
func TestAdam_Defaults(t *testing.T) {
	cfg, err := optim.NewAdam(optim.AdamConfig{})
	if err != nil {
		t.Fatalf("NewAdam failed: %v", err)
	}

	hp := cfg.Defaults
	if cfg.Name != optim.AdamOptimizer {
		t.Errorf("name = %q, want %q", cfg.Name, optim.AdamOptimizer)
	}
	if !floatEqual(hp.LR, 0.001, 1e-9) {
		t.Errorf("lr = %f, want 0.001", hp.LR)
	}
	if !floatEqual(hp.Alpha, 0.9, 1e-9) {
		t.Errorf("alpha = %f, want 0.9", hp.Alpha)
	}
	if !floatEqual(hp.Beta, 0.999, 1e-9) {
		t.Errorf("beta = %f, want 0.999", hp.Beta)
	}
	if !floatEqual(hp.LambdaCoef, 0.01, 1e-9) {
		t.Errorf("lambda_coef = %f, want 0.01", hp.LambdaCoef)
	}
	if !floatEqual(hp.Epsilon, 1e-6, 1e-12) {
		t.Errorf("epsilon = %g, want 1e-6", hp.Epsilon)
	}
	if !floatEqual(hp.MaxNormClip, 1.0, 1e-9) {
		t.Errorf("max_norm_clip = %f, want 1.0", hp.MaxNormClip)
	}
}

func TestAdam_DefaultConfigEnablesBiasCorrection(t *testing.T) {
	cfg, err := optim.NewAdam(optim.DefaultAdamConfig())
	if err != nil {
		t.Fatalf("NewAdam failed: %v", err)
	}
	if !cfg.Defaults.DoBiasCorrection {
		t.Error("DefaultAdamConfig should enable bias correction")
	}
}

func TestAdam_RejectsOutOfRangeCoefficients(t *testing.T) {
	cases := []optim.AdamConfig{
		{Alpha: 1.5},
		{Beta: -0.1},
		{Epsilon: -1e-6},
		{LR: -0.5},
		{MaxNormClip: -2},
	}

	for i, c := range cases {
		if _, err := optim.NewAdam(c); err == nil {
			t.Errorf("case %d: expected validation error, got nil", i)
		}
	}
}

// TestAdam_ParamGroups tests override resolution and group validation.
func TestAdam_ParamGroups(t *testing.T) {
	cfg, err := optim.NewAdam(optim.AdamConfig{
		LR: 0.01,
		Groups: []optim.ParamGroup{
			{
				Params:    []string{"encoder.weight", "encoder.bias"},
				Overrides: map[string]float32{optim.KeyLR: 0.1, optim.KeyLambdaCoef: 0},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewAdam failed: %v", err)
	}

	hp := cfg.HyperparamsFor("encoder.weight")
	if !floatEqual(hp.LR, 0.1, 1e-9) {
		t.Errorf("group lr = %f, want 0.1", hp.LR)
	}
	if hp.LambdaCoef != 0 {
		t.Errorf("group lambda_coef = %f, want 0", hp.LambdaCoef)
	}
	// Unlisted hyperparameters inherit the defaults.
	if !floatEqual(hp.Alpha, 0.9, 1e-9) {
		t.Errorf("group alpha = %f, want inherited 0.9", hp.Alpha)
	}

	// Parameters outside every group see the defaults untouched.
	base := cfg.HyperparamsFor("decoder.weight")
	if !floatEqual(base.LR, 0.01, 1e-9) {
		t.Errorf("base lr = %f, want 0.01", base.LR)
	}
}

func TestAdam_GroupValidation(t *testing.T) {
	cases := []struct {
		name   string
		groups []optim.ParamGroup
	}{
		{"empty group", []optim.ParamGroup{{}}},
		{"empty name", []optim.ParamGroup{{Params: []string{""}}}},
		{"duplicate across groups", []optim.ParamGroup{
			{Params: []string{"w"}},
			{Params: []string{"w"}},
		}},
		{"unknown key", []optim.ParamGroup{
			{Params: []string{"w"}, Overrides: map[string]float32{"momentum": 0.9}},
		}},
		{"bad override value", []optim.ParamGroup{
			{Params: []string{"w"}, Overrides: map[string]float32{optim.KeyAlpha: 2}},
		}},
	}

	for _, tc := range cases {
		if _, err := optim.NewAdam(optim.AdamConfig{Groups: tc.groups}); err == nil {
			t.Errorf("%s: expected validation error, got nil", tc.name)
		}
	}
}

// TestLamb_Defaults tests the unbounded trust-ratio clamp default.
func TestLamb_Defaults(t *testing.T) {
	cfg, err := optim.NewLamb(optim.LambConfig{})
	if err != nil {
		t.Fatalf("NewLamb failed: %v", err)
	}

	if cfg.Name != optim.LambOptimizer {
		t.Errorf("name = %q, want %q", cfg.Name, optim.LambOptimizer)
	}
	if cfg.Defaults.RatioMin != -math.MaxFloat32 {
		t.Errorf("ratio_min = %v, want unbounded", cfg.Defaults.RatioMin)
	}
	if cfg.Defaults.RatioMax != math.MaxFloat32 {
		t.Errorf("ratio_max = %v, want unbounded", cfg.Defaults.RatioMax)
	}
}

func TestLamb_RejectsInvertedRatioClamp(t *testing.T) {
	if _, err := optim.NewLamb(optim.LambConfig{RatioMin: 2, RatioMax: 1}); err == nil {
		t.Error("ratio_min above ratio_max should fail")
	}
}

func TestLamb_ExplicitRatioClamp(t *testing.T) {
	cfg, err := optim.NewLamb(optim.LambConfig{RatioMin: -5, RatioMax: 5})
	if err != nil {
		t.Fatalf("NewLamb failed: %v", err)
	}
	if cfg.Defaults.RatioMin != -5 || cfg.Defaults.RatioMax != 5 {
		t.Errorf("ratio clamp = [%v, %v], want [-5, 5]",
			cfg.Defaults.RatioMin, cfg.Defaults.RatioMax)
	}
}
