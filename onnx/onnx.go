// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package onnx

import (
	"github.com/kiln-ml/kiln/internal/onnx"
)

// Model is a parsed ONNX model prepared for training intake: weights
// converted to tensors, IO and operator inventory available for
// inspection.
type Model = onnx.Model

// IOSpec describes one graph input or output.
type IOSpec = onnx.IOSpec

// Load parses an ONNX model file.
//
// Example:
//
//	model, err := onnx.Load("mnist.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(model.GraphName(), model.WeightNames())
func Load(path string) (*Model, error) {
	return onnx.Load(path)
}

// LoadBytes parses an ONNX model held in memory, for models embedded in
// the binary or fetched over the network.
func LoadBytes(data []byte) (*Model, error) {
	return onnx.LoadBytes(data)
}
