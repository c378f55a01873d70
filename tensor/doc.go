// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the flat numeric buffers the Kiln training layer
// moves between an engine and the session: parameter values, gradients and
// checkpoint payloads.
//
// # Overview
//
// This package contains:
//   - RawTensor: a byte buffer plus shape and runtime type information
//   - Shape and DataType (float16, float32, float64)
//   - Half-precision bit conversions and Cast for dtype copies
//
// RawTensor is deliberately small. It carries data; the math that produces
// gradients lives behind the training.Engine interface.
//
// # Basic Usage
//
//	import "github.com/kiln-ml/kiln/tensor"
//
//	weights, err := tensor.FromFloat32(tensor.Shape{784, 10}, values)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	grad, _ := tensor.NewRaw(weights.Shape(), tensor.Float32)
//	data := grad.AsFloat32() // zero-copy view
//
// # Half Precision
//
// Go has no native float16; half values travel as raw IEEE 754 bits in a
// []uint16 view:
//
//	half, _ := tensor.Cast(weights, tensor.Float16)
//	bits := half.AsFloat16()
//	v := tensor.Float16ToFloat32(bits[0])
package tensor
