// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package training

import (
	"io"

	"github.com/kiln-ml/kiln/internal/amp"
	"github.com/kiln-ml/kiln/internal/optim"
	"github.com/kiln-ml/kiln/internal/serialization"
	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/internal/training"
)

// Engine runs the numeric side of training: forward and backward passes
// through RunStep, optimizer updates through ApplyStep. B is the batch
// type the engine consumes.
type Engine[B any] = training.Engine[B]

// Trainer drives an Engine step by step. Build one with NewTrainer.
type Trainer[B any] = training.Trainer[B]

// StepResult reports what one TrainStep did.
type StepResult = training.StepResult

// Stats are cumulative session counters.
type Stats = training.Stats

// Model exposes named parameters in a stable order.
type Model = training.Model

// Parameter pairs a named tensor with its gradient slot.
type Parameter = training.Parameter

// TrainStepInfo is the per-step record handed to the loss scaler.
// It is defined in the amp package; this alias keeps session code in one
// import.
type TrainStepInfo = amp.TrainStepInfo

// LossScaler is the mixed precision scaling strategy; see the amp package.
type LossScaler = amp.LossScaler

// NewParameter wraps a tensor as a named parameter with no gradient.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return training.NewParameter(name, t)
}

// ONNXModel adapts the float initializers of an ONNX graph into a
// trainable parameter set.
type ONNXModel = training.ONNXModel

// LoadONNXModel reads an ONNX model file and exposes its weights as
// trainable parameters.
//
// Example:
//
//	model, err := training.LoadONNXModel("mnist.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	trainer, err := training.NewTrainer(model, engine, optCfg, opts)
func LoadONNXModel(path string) (*ONNXModel, error) {
	return training.LoadONNXModel(path)
}

// NewTrainer builds a session around model, engine and optimizer config.
// A nil opts selects DefaultOptions.
//
// Example:
//
//	cfg, _ := optim.NewSGD(optim.SGDConfig{LR: 0.01})
//	trainer, err := training.NewTrainer(model, engine, cfg, nil)
func NewTrainer[B any](model Model, engine Engine[B], cfg *optim.Config, opts *Options) (*Trainer[B], error) {
	return training.NewTrainer(model, engine, cfg, opts)
}

// Options is the full trainer configuration tree. The zero value is
// usable; NewTrainer fills unset fields with defaults.
type Options = training.Options

// BatchOptions control how micro batches map onto optimizer updates.
type BatchOptions = training.BatchOptions

// DeviceOptions select the compute device the engine should run on.
type DeviceOptions = training.DeviceOptions

// DistributedOptions describe this process's place in a multi-worker run.
type DistributedOptions = training.DistributedOptions

// MixedPrecisionOptions control float16 training.
type MixedPrecisionOptions = training.MixedPrecisionOptions

// UtilsOptions gather auxiliary training switches.
type UtilsOptions = training.UtilsOptions

// DebugOptions tune reproducibility aids.
type DebugOptions = training.DebugOptions

// Scheduler type names accepted in an options document.
const (
	SchedulerConstantWarmup = training.SchedulerConstantWarmup
	SchedulerLinearWarmup   = training.SchedulerLinearWarmup
	SchedulerCosineWarmup   = training.SchedulerCosineWarmup
	SchedulerPolyWarmup     = training.SchedulerPolyWarmup
)

// DefaultOptions returns the canonical single-process configuration.
func DefaultOptions() *Options {
	return training.DefaultOptions()
}

// LoadOptions decodes a YAML options document into a validated Options
// tree. Unknown keys are rejected; an empty document yields defaults.
func LoadOptions(r io.Reader) (*Options, error) {
	return training.LoadOptions(r)
}

// LoadOptionsFile reads a YAML options document from path.
func LoadOptionsFile(path string) (*Options, error) {
	return training.LoadOptionsFile(path)
}

// DefaultMaxGradNorm is the gradient norm cap applied when
// UtilsOptions.GradNormClip is set.
const DefaultMaxGradNorm float32 = training.DefaultMaxGradNorm

// Unscale divides every gradient by scale in place.
func Unscale(grads []*tensor.RawTensor, scale float32) {
	training.Unscale(grads, scale)
}

// AllFinite reports whether no gradient element is Inf or NaN.
func AllFinite(grads []*tensor.RawTensor) bool {
	return training.AllFinite(grads)
}

// GradNorm returns the global L2 norm over all gradients.
func GradNorm(grads []*tensor.RawTensor) float32 {
	return training.GradNorm(grads)
}

// ClipGradNorm scales gradients so their global norm does not exceed
// maxNorm, returning the norm before clipping.
func ClipGradNorm(grads []*tensor.RawTensor, maxNorm float32) float32 {
	return training.ClipGradNorm(grads, maxNorm)
}

// Checkpoint is what LoadCheckpoint reports after restoring a session.
type Checkpoint = training.Checkpoint

// TrainState is the session state block stored in a checkpoint file.
type TrainState = serialization.TrainState

// ScalerState is implemented by loss scalers whose state checkpoints can
// snapshot and restore.
type ScalerState = training.ScalerState

// SaveCheckpoint writes model parameters and session state to a .kiln
// file.
//
// Example:
//
//	err := training.SaveCheckpoint("run.kiln", trainer, map[string]string{
//	    "dataset": "mnist",
//	})
func SaveCheckpoint[B any](path string, t *Trainer[B], metadata map[string]string) error {
	return training.SaveCheckpoint(path, t, metadata)
}

// LoadCheckpoint restores a session from a .kiln file written by
// SaveCheckpoint. The trainer's model must declare the same parameters
// with the same shapes and dtypes.
func LoadCheckpoint[B any](path string, t *Trainer[B]) (*Checkpoint, error) {
	return training.LoadCheckpoint(path, t)
}

// StateDict snapshots the model's parameters as a name-to-tensor map.
// The tensors are the live parameter buffers, not copies.
func StateDict(model Model) map[string]*tensor.RawTensor {
	return training.StateDict(model)
}

// SaveStateDict writes the model's parameters as a weights-only .kiln
// file with no training state.
func SaveStateDict(path string, model Model, metadata map[string]string) error {
	return training.SaveStateDict(path, model, metadata)
}

// LoadStateDict warm starts the model from a .kiln file. Every model
// parameter must be present with a matching shape and dtype; extra
// tensors in the file are ignored.
//
// Example:
//
//	model, _ := training.LoadONNXModel("mnist.onnx")
//	if err := training.LoadStateDict("pretrained.kiln", model); err != nil {
//	    log.Fatal(err)
//	}
func LoadStateDict(path string, model Model) error {
	return training.LoadStateDict(path, model)
}
