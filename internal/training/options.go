package training

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/amp"
	"github.com/kiln-ml/kiln/internal/optim"
)

// BatchOptions control how micro batches map onto optimizer updates.
type BatchOptions struct {
	// GradientAccumulationSteps is the number of micro steps whose
	// gradients accumulate before one optimizer update. 1 applies an
	// update after every step.
	GradientAccumulationSteps int
}

// DeviceOptions select the compute device the engine should run on. The
// session only carries them; the engine interprets the identifier.
type DeviceOptions struct {
	ID       string // Device identifier (default "cpu")
	MemLimit int64  // Device memory budget in bytes, 0 means unlimited
}

// DistributedOptions describe this process's place in a multi-worker run.
// They are plumbing for engines that shard work; the session itself
// performs no collectives.
type DistributedOptions struct {
	WorldRank int // Global rank of this process
	WorldSize int // Total number of processes (default 1)
	LocalRank int // Rank within the local node

	// AllReducePostAccumulation delays gradient reduction until the end
	// of the accumulation window instead of reducing every micro step.
	AllReducePostAccumulation bool
}

// MixedPrecisionOptions control float16 training.
type MixedPrecisionOptions struct {
	// Enabled turns on loss scaling and gradient finiteness checks.
	Enabled bool

	// LossScaler overrides the scaling strategy. Leaving it nil with
	// Enabled set installs the default dynamic scaler.
	LossScaler amp.LossScaler
}

// UtilsOptions gather auxiliary training switches.
type UtilsOptions struct {
	// GradNormClip clips the global gradient norm to 1.0 before every
	// optimizer update.
	GradNormClip bool

	// FrozenWeights names parameters excluded from scaling, clipping and
	// updates.
	FrozenWeights []string
}

// DebugOptions tune reproducibility aids.
type DebugOptions struct {
	// Deterministic asks the engine for reproducible kernels at the cost
	// of throughput.
	Deterministic bool
}

// Options is the full trainer configuration tree.
//
// The zero value is usable: NewTrainer fills unset fields with the same
// defaults DefaultOptions returns.
type Options struct {
	Batch          BatchOptions
	Device         DeviceOptions
	Distributed    DistributedOptions
	LRScheduler    optim.LRScheduler // nil keeps the optimizer's base rate
	MixedPrecision MixedPrecisionOptions
	Utils          UtilsOptions
	Debug          DebugOptions
}

// DefaultOptions returns the canonical single-process configuration:
// no accumulation, CPU device, world of one, full precision.
func DefaultOptions() *Options {
	return &Options{
		Batch:       BatchOptions{GradientAccumulationSteps: 1},
		Device:      DeviceOptions{ID: "cpu"},
		Distributed: DistributedOptions{WorldSize: 1},
	}
}

// withDefaults returns a copy of o with unset fields filled. A nil
// receiver yields DefaultOptions.
func (o *Options) withDefaults() *Options {
	if o == nil {
		return DefaultOptions()
	}
	out := *o
	if out.Batch.GradientAccumulationSteps == 0 {
		out.Batch.GradientAccumulationSteps = 1
	}
	if out.Device.ID == "" {
		out.Device.ID = "cpu"
	}
	if out.Distributed.WorldSize == 0 {
		out.Distributed.WorldSize = 1
	}
	return &out
}

// Validate checks the options tree for inconsistent values. It expects a
// tree with defaults already filled; DefaultOptions and LoadOptions both
// produce one.
func (o *Options) Validate() error {
	if o.Batch.GradientAccumulationSteps < 1 {
		return fmt.Errorf("invalid options: batch: gradient accumulation steps must be at least 1, got %d",
			o.Batch.GradientAccumulationSteps)
	}
	if o.Device.MemLimit < 0 {
		return fmt.Errorf("invalid options: device: mem limit must be non-negative, got %d", o.Device.MemLimit)
	}
	if o.Distributed.WorldSize < 1 {
		return fmt.Errorf("invalid options: distributed: world size must be at least 1, got %d",
			o.Distributed.WorldSize)
	}
	if o.Distributed.WorldRank < 0 || o.Distributed.WorldRank >= o.Distributed.WorldSize {
		return fmt.Errorf("invalid options: distributed: world rank %d outside [0, %d)",
			o.Distributed.WorldRank, o.Distributed.WorldSize)
	}
	if o.Distributed.LocalRank < 0 || o.Distributed.LocalRank >= o.Distributed.WorldSize {
		return fmt.Errorf("invalid options: distributed: local rank %d outside [0, %d)",
			o.Distributed.LocalRank, o.Distributed.WorldSize)
	}
	if !o.MixedPrecision.Enabled && o.MixedPrecision.LossScaler != nil {
		return fmt.Errorf("invalid options: mixed_precision: loss scaler set but mixed precision is disabled")
	}
	return nil
}
