package amp

import (
	"fmt"
	"sync"
)

// Default dynamic scaling parameters.
const (
	DefaultLossScale     float32 = 65536 // 2^16
	DefaultUpScaleWindow         = 2000
	DefaultMinLossScale  float32 = 1.0
	DefaultMaxLossScale  float32 = 16777216 // 2^24
)

// DynamicConfig holds configuration for DynamicLossScaler.
//
// Zero numeric fields select the defaults above. The zero value of
// AutomaticUpdate means manual updates; start from DefaultDynamicConfig for
// the canonical automatic configuration.
type DynamicConfig struct {
	AutomaticUpdate bool    // Session calls Update after every step
	LossScale       float32 // Initial loss scale (default: 65536)
	UpScaleWindow   int     // Stable steps required before doubling (default: 2000)
	MinLossScale    float32 // Lower clamp for the scale (default: 1)
	MaxLossScale    float32 // Upper clamp for the scale (default: 16777216)
}

// DefaultDynamicConfig returns the canonical dynamic scaling configuration.
func DefaultDynamicConfig() DynamicConfig {
	return DynamicConfig{
		AutomaticUpdate: true,
		LossScale:       DefaultLossScale,
		UpScaleWindow:   DefaultUpScaleWindow,
		MinLossScale:    DefaultMinLossScale,
		MaxLossScale:    DefaultMaxLossScale,
	}
}

// State is the mutable part of a DynamicLossScaler: the current scale and
// the count of consecutive stable steps since the last scale move.
// Checkpoints snapshot and restore it.
type State struct {
	LossScale   float32
	StableSteps int
}

// DynamicLossScaler adapts the loss scale from step feedback. After
// UpScaleWindow consecutive stable steps the scale doubles; a step with a
// non-finite gradient halves it immediately. Both moves clamp to the
// configured bounds and restart the stable-step count, so a saturated move
// still opens a fresh window.
//
// All methods are safe for concurrent use.
type DynamicLossScaler struct {
	automaticUpdate bool
	upScaleWindow   int
	minLossScale    float32
	maxLossScale    float32
	initialScale    float32

	mu    sync.Mutex
	state State
}

// Compile-time check that DynamicLossScaler implements LossScaler.
var _ LossScaler = (*DynamicLossScaler)(nil)

// NewDynamicLossScaler creates a dynamic scaler from cfg.
func NewDynamicLossScaler(cfg DynamicConfig) (*DynamicLossScaler, error) {
	// Set defaults
	if cfg.LossScale == 0 {
		cfg.LossScale = DefaultLossScale
	}
	if cfg.UpScaleWindow == 0 {
		cfg.UpScaleWindow = DefaultUpScaleWindow
	}
	if cfg.MinLossScale == 0 {
		cfg.MinLossScale = DefaultMinLossScale
	}
	if cfg.MaxLossScale == 0 {
		cfg.MaxLossScale = DefaultMaxLossScale
	}

	if cfg.UpScaleWindow < 0 {
		return nil, fmt.Errorf("dynamic loss scaler: up scale window must be positive, got %d", cfg.UpScaleWindow)
	}
	if cfg.MinLossScale < 0 {
		return nil, fmt.Errorf("dynamic loss scaler: min loss scale must be positive, got %v", cfg.MinLossScale)
	}
	if cfg.MaxLossScale < cfg.MinLossScale {
		return nil, fmt.Errorf("dynamic loss scaler: max loss scale %v below min loss scale %v",
			cfg.MaxLossScale, cfg.MinLossScale)
	}
	if cfg.LossScale < cfg.MinLossScale || cfg.LossScale > cfg.MaxLossScale {
		return nil, fmt.Errorf("dynamic loss scaler: initial loss scale %v outside [%v, %v]",
			cfg.LossScale, cfg.MinLossScale, cfg.MaxLossScale)
	}

	return &DynamicLossScaler{
		automaticUpdate: cfg.AutomaticUpdate,
		upScaleWindow:   cfg.UpScaleWindow,
		minLossScale:    cfg.MinLossScale,
		maxLossScale:    cfg.MaxLossScale,
		initialScale:    cfg.LossScale,
		state:           State{LossScale: cfg.LossScale},
	}, nil
}

// LossScale returns the current loss scale.
func (s *DynamicLossScaler) LossScale() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LossScale
}

// AutomaticUpdate reports whether the session drives Update itself.
func (s *DynamicLossScaler) AutomaticUpdate() bool {
	return s.automaticUpdate
}

// Update moves the scale according to info's finiteness verdict. It fails
// with ErrUnknownFiniteness when no verdict is present; state is untouched
// on error.
func (s *DynamicLossScaler) Update(info *TrainStepInfo) error {
	if info == nil || info.AllFinite == nil {
		return ErrUnknownFiniteness
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.next(s.state, *info.AllFinite)
	return nil
}

// next returns the state that follows st after one step. Pure function of
// its inputs; Update applies it under the lock.
func (s *DynamicLossScaler) next(st State, allFinite bool) State {
	if !allFinite {
		return State{LossScale: max(s.minLossScale, st.LossScale/2)}
	}

	st.StableSteps++
	if st.StableSteps >= s.upScaleWindow {
		return State{LossScale: min(s.maxLossScale, st.LossScale*2)}
	}
	return st
}

// Reset restores the construction-time scale and restarts the stable-step
// count. Construction values survive Restore: resetting a restored scaler
// still returns to the configuration it was built with.
func (s *DynamicLossScaler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{LossScale: s.initialScale}
}

// State returns a snapshot of the mutable state.
func (s *DynamicLossScaler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Restore replaces the mutable state, validating it against the scaler's
// bounds.
func (s *DynamicLossScaler) Restore(st State) error {
	if st.LossScale < s.minLossScale || st.LossScale > s.maxLossScale {
		return fmt.Errorf("dynamic loss scaler: restored scale %v outside [%v, %v]",
			st.LossScale, s.minLossScale, s.maxLossScale)
	}
	if st.StableSteps < 0 {
		return fmt.Errorf("dynamic loss scaler: restored stable steps must be non-negative, got %d", st.StableSteps)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	return nil
}
