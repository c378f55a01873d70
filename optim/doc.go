// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim describes optimizer configuration and learning rate
// schedules for the Kiln training layer.
//
// # Overview
//
// This package contains:
//   - Config: a validated description of one optimizer instance (family
//     name, default hyperparameters, per-group overrides)
//   - NewSGD, NewAdam, NewLamb: constructors that fill defaults and
//     validate
//   - LRScheduler: warmup schedules (constant, linear, cosine, polynomial)
//
// The runtime engine owns the update rules themselves. Kiln validates the
// knobs, resolves which values apply to which parameter and drives the
// schedule; the engine reads the result.
//
// # Basic Usage
//
//	import "github.com/kiln-ml/kiln/optim"
//
//	cfg, err := optim.NewAdam(optim.AdamConfig{
//	    LR: 1e-4,
//	    Groups: []optim.ParamGroup{{
//	        Params:    []string{"embed.weight"},
//	        Overrides: map[string]float32{optim.KeyLR: 1e-5},
//	    }},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	hp := cfg.HyperparamsFor("embed.weight") // LR 1e-5, rest inherited
//
// # Schedules
//
// Schedulers are pure functions of the optimization step:
//
//	sched, err := optim.NewLinearWarmup(10000, 0.1)
//	lr := sched.GetLR(step, cfg.LR())
//
// The training package calls GetLR before every optimizer update when an
// Options tree carries a scheduler.
package optim
