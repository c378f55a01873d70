// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package amp provides loss scaling for mixed precision training.
//
// # Overview
//
// Gradients computed in float16 underflow long before float32 does.
// Multiplying the loss by a scale factor before backpropagation shifts the
// gradient distribution into the representable range; the training session
// divides the factor back out before the optimizer update.
//
// This package contains:
//   - LossScaler: the strategy interface a mixed precision session drives
//   - DynamicLossScaler: adaptive scaling that doubles after a window of
//     stable steps and halves on gradient overflow
//   - TrainStepInfo: the per-step record scalers consume
//   - UnimplementedLossScaler: embeddable base for custom strategies
//
// # Basic Usage
//
//	import "github.com/kiln-ml/kiln/amp"
//
//	scaler, err := amp.NewDynamicLossScaler(amp.DefaultDynamicConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Each step: scale the loss, run backward, check the gradients.
//	scale := scaler.LossScale()
//	allFinite := runScaledStep(scale)
//
//	info, _ := amp.NewTrainStepInfo(&allFinite, epoch, step)
//	if err := scaler.Update(info); err != nil {
//	    log.Fatal(err)
//	}
//
// Most users never touch this package directly: training.NewTrainer
// installs a DynamicLossScaler when mixed precision is enabled and drives
// it through the step loop.
//
// # Custom Strategies
//
// A fixed-scale strategy only needs LossScale:
//
//	type fixedScaler struct {
//	    amp.UnimplementedLossScaler
//	}
//
//	func (fixedScaler) LossScale() float32 { return 4096 }
//
// Embedding UnimplementedLossScaler keeps the type valid as the interface
// grows; its Update reports amp.ErrNotImplemented and its AutomaticUpdate
// returns false, so the session will not drive it.
package amp
