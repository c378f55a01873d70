// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package onnx reads ONNX model files for training.
//
// # Overview
//
// ONNX (Open Neural Network Exchange) is the format PyTorch, TensorFlow
// and friends export to, which makes it the natural hand-off point for a
// model that should be trained with Kiln. Loading a model converts its
// float-family initializers (float32, float16, float64) into tensors;
// those are the trainable weight candidates. Integer initializers are
// graph constants and stay untouched.
//
// The package never executes the graph. Forward and backward passes
// belong to the training engine; what lives here is intake and
// inspection: weights, runtime inputs and outputs, opset and producer
// info, and an operator inventory.
//
// # Basic Usage
//
//	import "github.com/kiln-ml/kiln/onnx"
//
//	model, err := onnx.Load("mnist.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("%s (opset %d), %d nodes\n",
//	    model.GraphName(), model.OpsetVersion(), model.NodeCount())
//	for _, name := range model.WeightNames() {
//	    w := model.Weights()[name]
//	    fmt.Printf("  %s: %s%v\n", name, w.DType(), w.Shape())
//	}
//
// To train the loaded weights, hand the file to
// training.LoadONNXModel, which wraps the same intake path in a
// training.Model.
package onnx
