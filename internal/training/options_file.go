package training

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kiln-ml/kiln/internal/amp"
	"github.com/kiln-ml/kiln/internal/optim"
)

// Scheduler type names accepted in an options document.
const (
	SchedulerConstantWarmup = "constant_warmup"
	SchedulerLinearWarmup   = "linear_warmup"
	SchedulerCosineWarmup   = "cosine_warmup"
	SchedulerPolyWarmup     = "poly_warmup"
)

// optionsFile mirrors the YAML layout of an options document. The key
// names follow the Options tree in snake case.
type optionsFile struct {
	Batch struct {
		GradientAccumulationSteps int `yaml:"gradient_accumulation_steps"`
	} `yaml:"batch"`
	Device struct {
		ID       string `yaml:"id"`
		MemLimit int64  `yaml:"mem_limit"`
	} `yaml:"device"`
	Distributed struct {
		WorldRank                 int  `yaml:"world_rank"`
		WorldSize                 int  `yaml:"world_size"`
		LocalRank                 int  `yaml:"local_rank"`
		AllReducePostAccumulation bool `yaml:"allreduce_post_accumulation"`
	} `yaml:"distributed"`
	LRScheduler    *schedulerSpec `yaml:"lr_scheduler"`
	MixedPrecision struct {
		Enabled    bool        `yaml:"enabled"`
		LossScaler *scalerSpec `yaml:"loss_scaler"`
	} `yaml:"mixed_precision"`
	Utils struct {
		GradNormClip  bool     `yaml:"grad_norm_clip"`
		FrozenWeights []string `yaml:"frozen_weights"`
	} `yaml:"utils"`
	Debug struct {
		Deterministic bool `yaml:"deterministic"`
	} `yaml:"debug"`
}

// schedulerSpec declares a warmup schedule by type name. Cycles applies to
// cosine schedules, Power to polynomial ones; both fall back to the
// constructor defaults when zero.
type schedulerSpec struct {
	Type       string  `yaml:"type"`
	TotalSteps int     `yaml:"total_steps"`
	Warmup     float64 `yaml:"warmup"`
	Cycles     float64 `yaml:"cycles"`
	Power      float64 `yaml:"power"`
}

func (s *schedulerSpec) build() (optim.LRScheduler, error) {
	switch s.Type {
	case SchedulerConstantWarmup:
		return optim.NewConstantWarmup(s.TotalSteps, s.Warmup)
	case SchedulerLinearWarmup:
		return optim.NewLinearWarmup(s.TotalSteps, s.Warmup)
	case SchedulerCosineWarmup:
		return optim.NewCosineWarmup(s.TotalSteps, s.Warmup, s.Cycles)
	case SchedulerPolyWarmup:
		return optim.NewPolyWarmup(s.TotalSteps, s.Warmup, s.Power)
	case "":
		return nil, errors.New("lr_scheduler: type is required")
	default:
		return nil, fmt.Errorf("lr_scheduler: unknown type %q", s.Type)
	}
}

// scalerSpec declares a dynamic loss scaler. Zero numeric fields select
// the amp defaults; automatic_update defaults to true, matching
// amp.DefaultDynamicConfig.
type scalerSpec struct {
	AutomaticUpdate *bool   `yaml:"automatic_update"`
	LossScale       float32 `yaml:"loss_scale"`
	UpScaleWindow   int     `yaml:"up_scale_window"`
	MinLossScale    float32 `yaml:"min_loss_scale"`
	MaxLossScale    float32 `yaml:"max_loss_scale"`
}

func (s *scalerSpec) build() (amp.LossScaler, error) {
	cfg := amp.DynamicConfig{
		AutomaticUpdate: true,
		LossScale:       s.LossScale,
		UpScaleWindow:   s.UpScaleWindow,
		MinLossScale:    s.MinLossScale,
		MaxLossScale:    s.MaxLossScale,
	}
	if s.AutomaticUpdate != nil {
		cfg.AutomaticUpdate = *s.AutomaticUpdate
	}
	return amp.NewDynamicLossScaler(cfg)
}

// LoadOptions decodes a YAML options document into a validated tree with
// defaults filled. Unknown keys are rejected so a typoed key fails loudly
// instead of silently keeping its default. An empty document yields
// DefaultOptions.
func LoadOptions(r io.Reader) (*Options, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var raw optionsFile
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	opts := &Options{
		Batch: BatchOptions{GradientAccumulationSteps: raw.Batch.GradientAccumulationSteps},
		Device: DeviceOptions{
			ID:       raw.Device.ID,
			MemLimit: raw.Device.MemLimit,
		},
		Distributed: DistributedOptions{
			WorldRank:                 raw.Distributed.WorldRank,
			WorldSize:                 raw.Distributed.WorldSize,
			LocalRank:                 raw.Distributed.LocalRank,
			AllReducePostAccumulation: raw.Distributed.AllReducePostAccumulation,
		},
		MixedPrecision: MixedPrecisionOptions{Enabled: raw.MixedPrecision.Enabled},
		Utils: UtilsOptions{
			GradNormClip:  raw.Utils.GradNormClip,
			FrozenWeights: raw.Utils.FrozenWeights,
		},
		Debug: DebugOptions{Deterministic: raw.Debug.Deterministic},
	}

	if raw.LRScheduler != nil {
		sched, err := raw.LRScheduler.build()
		if err != nil {
			return nil, fmt.Errorf("invalid options: %w", err)
		}
		opts.LRScheduler = sched
	}
	if raw.MixedPrecision.LossScaler != nil {
		scaler, err := raw.MixedPrecision.LossScaler.build()
		if err != nil {
			return nil, fmt.Errorf("invalid options: mixed_precision: %w", err)
		}
		opts.MixedPrecision.LossScaler = scaler
	}

	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// LoadOptionsFile reads a YAML options document from path.
func LoadOptionsFile(path string) (*Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open options file: %w", err)
	}
	defer f.Close()

	opts, err := LoadOptions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}
