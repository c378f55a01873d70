// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package amp

import (
	"github.com/kiln-ml/kiln/internal/amp"
)

// LossScaler is the loss-scaling strategy a mixed precision session drives.
type LossScaler = amp.LossScaler

// UnimplementedLossScaler is a LossScaler whose operations fail or do
// nothing. Embed it in custom strategies to satisfy the interface while
// implementing methods incrementally.
type UnimplementedLossScaler = amp.UnimplementedLossScaler

// TrainStepInfo is a snapshot of one training step's outcome. AllFinite
// stays nil until a gradient finiteness check has run.
type TrainStepInfo = amp.TrainStepInfo

// NewTrainStepInfo creates a validated step record.
//
// Example:
//
//	allFinite := true
//	info, err := amp.NewTrainStepInfo(&allFinite, epoch, step)
func NewTrainStepInfo(allFinite *bool, epoch, step int) (*TrainStepInfo, error) {
	return amp.NewTrainStepInfo(allFinite, epoch, step)
}

// DynamicLossScaler adapts the loss scale from step feedback: doubling
// after UpScaleWindow consecutive stable steps, halving on overflow.
type DynamicLossScaler = amp.DynamicLossScaler

// DynamicConfig holds configuration for DynamicLossScaler.
// Zero numeric fields select the package defaults.
type DynamicConfig = amp.DynamicConfig

// State is the checkpointable part of a DynamicLossScaler.
type State = amp.State

// Default dynamic scaling parameters.
const (
	DefaultLossScale     float32 = amp.DefaultLossScale
	DefaultUpScaleWindow         = amp.DefaultUpScaleWindow
	DefaultMinLossScale  float32 = amp.DefaultMinLossScale
	DefaultMaxLossScale  float32 = amp.DefaultMaxLossScale
)

// Sentinel errors for loss scaler operations.
var (
	ErrNotImplemented    = amp.ErrNotImplemented
	ErrUnknownFiniteness = amp.ErrUnknownFiniteness
)

// DefaultDynamicConfig returns the canonical dynamic scaling configuration:
// automatic updates, initial scale 65536, a 2000-step window and clamps at
// [1, 16777216].
func DefaultDynamicConfig() DynamicConfig {
	return amp.DefaultDynamicConfig()
}

// NewDynamicLossScaler creates a dynamic scaler from cfg.
//
// Example:
//
//	scaler, err := amp.NewDynamicLossScaler(amp.DynamicConfig{
//	    AutomaticUpdate: true,
//	    LossScale:       8192,
//	    UpScaleWindow:   500,
//	})
func NewDynamicLossScaler(cfg DynamicConfig) (*DynamicLossScaler, error) {
	return amp.NewDynamicLossScaler(cfg)
}
