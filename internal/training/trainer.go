// Package training implements the session shell around an external
// training engine.
//
// The engine owns the numerics: forward, backward and the optimizer update
// rule. The session owns the control flow around them: learning rate
// schedules, loss scaling for mixed precision, gradient finiteness checks,
// norm clipping, gradient accumulation windows, frozen parameter filtering
// and checkpointing. A Trainer drives one engine over one model and keeps
// the step, epoch and update counters the rest of the layer reads.
package training

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kiln-ml/kiln/internal/amp"
	"github.com/kiln-ml/kiln/internal/optim"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Engine runs the numeric half of a training step.
//
// Implementations hold the model's compute graph. Between accumulation
// boundaries, RunStep must add into the gradients already stored on the
// parameters instead of replacing them; the session zeroes them after
// every applied or skipped update.
type Engine[B any] interface {
	// RunStep runs forward and backward for one micro batch with the loss
	// multiplied by lossScale, storing scaled gradients on the model
	// parameters. It returns the unscaled loss value.
	RunStep(batch B, lossScale float32) (float32, error)

	// ApplyStep performs one optimizer update at the given learning rate.
	// It must update exactly the parameters that currently carry a
	// gradient; the session drops frozen gradients before calling it.
	ApplyStep(lr float32) error
}

// StepResult reports what one TrainStep call did.
type StepResult struct {
	Loss      float32 // Unscaled loss reported by the engine
	LR        float32 // Learning rate used for this step
	LossScale float32 // Scale applied to the loss, 1 in full precision
	Applied   bool    // An optimizer update ran
	Skipped   bool    // An overflow discarded the accumulation window
	GradNorm  float32 // Pre-clip gradient norm, 0 unless clipping ran
	Info      *amp.TrainStepInfo
}

// Stats are cumulative session counters.
type Stats struct {
	TotalSteps   int // Micro steps seen
	AppliedSteps int // Optimizer updates performed
	SkippedSteps int // Updates discarded due to gradient overflow
}

// Trainer coordinates one engine, one model and one optimizer
// configuration.
//
// Not safe for concurrent use; a session drives its steps from one
// goroutine.
type Trainer[B any] struct {
	model  Model
	engine Engine[B]
	cfg    *optim.Config
	opts   *Options
	scaler amp.LossScaler // non-nil exactly when mixed precision is enabled

	runID     string
	trainable []*Parameter
	frozen    []*Parameter

	epoch      int
	step       int // micro steps across the whole run
	optimStep  int // optimizer updates, the scheduler's clock
	accumCount int // micro steps into the current accumulation window
	stats      Stats
}

// NewTrainer builds a session. A nil opts selects DefaultOptions. When
// mixed precision is enabled without an explicit scaler, the default
// dynamic loss scaler is installed.
func NewTrainer[B any](model Model, engine Engine[B], cfg *optim.Config, opts *Options) (*Trainer[B], error) {
	if model == nil {
		return nil, errors.New("trainer: model is required")
	}
	if engine == nil {
		return nil, errors.New("trainer: engine is required")
	}
	if cfg == nil {
		return nil, errors.New("trainer: optimizer config is required")
	}

	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	scaler := opts.MixedPrecision.LossScaler
	if opts.MixedPrecision.Enabled && scaler == nil {
		var err error
		scaler, err = amp.NewDynamicLossScaler(amp.DefaultDynamicConfig())
		if err != nil {
			return nil, err
		}
	}

	params := model.Parameters()
	byName := make(map[string]*Parameter, len(params))
	for _, p := range params {
		byName[p.Name()] = p
	}
	for _, name := range opts.Utils.FrozenWeights {
		if byName[name] == nil {
			return nil, fmt.Errorf("invalid options: utils: frozen weight %q not found in model", name)
		}
	}

	frozenNames := make(map[string]bool, len(opts.Utils.FrozenWeights))
	for _, name := range opts.Utils.FrozenWeights {
		frozenNames[name] = true
	}
	var trainable, frozen []*Parameter
	for _, p := range params {
		if frozenNames[p.Name()] {
			frozen = append(frozen, p)
		} else {
			trainable = append(trainable, p)
		}
	}
	if len(trainable) == 0 {
		return nil, errors.New("trainer: every model parameter is frozen")
	}

	return &Trainer[B]{
		model:     model,
		engine:    engine,
		cfg:       cfg,
		opts:      opts,
		scaler:    scaler,
		runID:     uuid.NewString(),
		trainable: trainable,
		frozen:    frozen,
	}, nil
}

// TrainStep runs one micro batch through the engine and, at accumulation
// boundaries, one optimizer update.
//
// In mixed precision the accumulated gradients are unscaled and checked
// for finiteness at the boundary; an overflow skips the update and
// discards the window, and the loss scaler reacts through its Update. Full
// precision runs never check, so the step record carries no verdict.
func (t *Trainer[B]) TrainStep(batch B) (*StepResult, error) {
	baseLR := t.cfg.LR()
	lr := baseLR
	if t.opts.LRScheduler != nil {
		lr = t.opts.LRScheduler.GetLR(t.optimStep, baseLR)
	}

	scale := float32(1)
	if t.scaler != nil {
		scale = t.scaler.LossScale()
	}

	loss, err := t.engine.RunStep(batch, scale)
	if err != nil {
		return nil, fmt.Errorf("train step %d: engine: %w", t.step, err)
	}

	res := &StepResult{Loss: loss, LR: lr, LossScale: scale}

	// The finiteness verdict exists only at accumulation boundaries, where
	// the full window's gradient is ready for inspection.
	var allFinite *bool
	t.accumCount++
	if t.accumCount >= t.opts.Batch.GradientAccumulationSteps {
		// Freezing is enforced here: frozen gradients are dropped before
		// the update so the engine never applies them.
		for _, p := range t.frozen {
			p.ZeroGrad()
		}
		grads := t.gradients()
		if t.scaler != nil {
			Unscale(grads, scale)
			finite := AllFinite(grads)
			allFinite = &finite
		}

		if allFinite == nil || *allFinite {
			if t.opts.Utils.GradNormClip {
				res.GradNorm = ClipGradNorm(grads, DefaultMaxGradNorm)
			}
			if err := t.engine.ApplyStep(lr); err != nil {
				return nil, fmt.Errorf("train step %d: engine: %w", t.step, err)
			}
			res.Applied = true
			t.optimStep++
			t.stats.AppliedSteps++
		} else {
			res.Skipped = true
			t.stats.SkippedSteps++
		}

		t.zeroGradients()
		t.accumCount = 0
	}

	info, err := amp.NewTrainStepInfo(allFinite, t.epoch, t.step)
	if err != nil {
		return nil, err
	}
	res.Info = info

	if t.scaler != nil && t.scaler.AutomaticUpdate() && allFinite != nil {
		if err := t.scaler.Update(info); err != nil {
			return nil, fmt.Errorf("train step %d: loss scaler: %w", t.step, err)
		}
	}

	t.step++
	t.stats.TotalSteps++
	return res, nil
}

// gradients returns the non-nil gradients of the trainable parameters.
func (t *Trainer[B]) gradients() []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, 0, len(t.trainable))
	for _, p := range t.trainable {
		if g := p.Grad(); g != nil {
			grads = append(grads, g)
		}
	}
	return grads
}

// zeroGradients clears gradients on all parameters so stale values never
// leak into the next accumulation window.
func (t *Trainer[B]) zeroGradients() {
	for _, p := range t.model.Parameters() {
		p.ZeroGrad()
	}
}

// EndEpoch advances the epoch counter. Accumulation windows may span
// epochs; a partial window carries into the next one untouched.
func (t *Trainer[B]) EndEpoch() {
	t.epoch++
}

// LossScale returns the scale the next step will apply, 1 in full
// precision.
func (t *Trainer[B]) LossScale() float32 {
	if t.scaler == nil {
		return 1
	}
	return t.scaler.LossScale()
}

// Scaler returns the active loss scaler, nil in full precision.
func (t *Trainer[B]) Scaler() amp.LossScaler {
	return t.scaler
}

// Step returns the number of micro steps run so far.
func (t *Trainer[B]) Step() int {
	return t.step
}

// OptimizationStep returns the number of optimizer updates applied so far.
func (t *Trainer[B]) OptimizationStep() int {
	return t.optimStep
}

// Epoch returns the current epoch.
func (t *Trainer[B]) Epoch() int {
	return t.epoch
}

// RunID returns the identifier stamped into checkpoints written by this
// session.
func (t *Trainer[B]) RunID() string {
	return t.runID
}

// Stats returns the cumulative session counters.
func (t *Trainer[B]) Stats() Stats {
	return t.stats
}

// Options returns the validated options tree the session runs with.
func (t *Trainer[B]) Options() *Options {
	return t.opts
}
