// Copyright 2025 Kiln ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package onnx_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kiln-ml/kiln/onnx"
	"github.com/kiln-ml/kiln/tensor"
)

// miniModel is an ONNX model with one float32 initializer w = [1, 2],
// hand-encoded in protobuf wire format.
func miniModel() []byte {
	init := []byte{
		0x08, 0x02, // dims: 2
		0x10, 0x01, // data_type: float32
		0x42, 0x01, 'w', // name: "w"
		0x4a, 0x08, // raw_data: 8 bytes
		0x00, 0x00, 0x80, 0x3f, // 1.0
		0x00, 0x00, 0x00, 0x40, // 2.0
	}
	graph := []byte{0x12, 0x01, 'g'} // name: "g"
	graph = append(graph, 0x2a, byte(len(init)))
	graph = append(graph, init...)
	model := []byte{0x08, 0x08} // ir_version: 8
	model = append(model, 0x3a, byte(len(graph)))
	model = append(model, graph...)
	return model
}

func TestLoadBytes(t *testing.T) {
	model, err := onnx.LoadBytes(miniModel())
	if err != nil {
		t.Fatalf("LoadBytes() error = %v", err)
	}

	if got := model.GraphName(); got != "g" {
		t.Errorf("GraphName() = %q, want %q", got, "g")
	}
	names := model.WeightNames()
	if len(names) != 1 || names[0] != "w" {
		t.Fatalf("WeightNames() = %v, want [w]", names)
	}

	w := model.Weights()["w"]
	if got := w.DType(); got != tensor.Float32 {
		t.Errorf("DType() = %s, want float32", got)
	}
	if vals := w.AsFloat32(); vals[0] != 1 || vals[1] != 2 {
		t.Errorf("Weights()[w] = %v, want [1 2]", vals)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mini.onnx")
	if err := os.WriteFile(path, miniModel(), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	model, err := onnx.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := model.InitializerCount(); got != 1 {
		t.Errorf("InitializerCount() = %d, want 1", got)
	}

	if _, err := onnx.Load(filepath.Join(t.TempDir(), "missing.onnx")); err == nil {
		t.Error("Load() on a missing file succeeded, want error")
	}
}
