// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package training provides the session layer that drives a training
// engine: step orchestration, mixed precision control, gradient
// accumulation, learning rate scheduling and checkpointing.
//
// # Overview
//
// The package splits a training loop into two roles. The Engine computes:
// it runs forward and backward passes and applies optimizer updates. The
// Trainer controls: it decides the loss scale and learning rate for each
// step, checks gradients for overflow, enforces frozen parameters and
// accumulation windows, and keeps the step counters that checkpoints
// snapshot. Kiln ships the control side; the engine arrives through the
// Engine interface.
//
// # Basic Usage
//
//	import (
//	    "github.com/kiln-ml/kiln/optim"
//	    "github.com/kiln-ml/kiln/training"
//	)
//
//	func main() {
//	    cfg, _ := optim.NewAdam(optim.AdamConfig{LR: 1e-4})
//
//	    trainer, err := training.NewTrainer(model, engine, cfg, &training.Options{
//	        Batch:          training.BatchOptions{GradientAccumulationSteps: 4},
//	        MixedPrecision: training.MixedPrecisionOptions{Enabled: true},
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    for epoch := range numEpochs {
//	        for batch := range loader {
//	            res, err := trainer.TrainStep(batch)
//	            if err != nil {
//	                log.Fatal(err)
//	            }
//	            if res.Skipped {
//	                log.Printf("overflow, scale now %v", trainer.LossScale())
//	            }
//	        }
//	        trainer.EndEpoch()
//	    }
//
//	    if err := training.SaveCheckpoint("run.kiln", trainer, nil); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Mixed Precision
//
// With MixedPrecisionOptions.Enabled the trainer installs a dynamic loss
// scaler (or uses the one provided), passes the scale to every RunStep,
// unscales the accumulated gradients at each boundary and checks them for
// overflow. Overflowed windows are discarded instead of applied, and the
// scaler reacts by halving; see the amp package for the scaling policy.
//
// # Options Files
//
// LoadOptions reads the options tree from YAML:
//
//	batch:
//	  gradient_accumulation_steps: 4
//	lr_scheduler:
//	  type: linear_warmup
//	  total_steps: 10000
//	  warmup: 0.1
//	mixed_precision:
//	  enabled: true
package training
