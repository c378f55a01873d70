// Package main provides the Kiln ML Framework CLI.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/kiln-ml/kiln/internal/onnx"
	"github.com/kiln-ml/kiln/internal/serialization"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Kiln ML Framework %s\n", version)
			return
		case "inspect":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "usage: kiln inspect <file.kiln>")
				os.Exit(1)
			}
			if err := inspect(os.Args[2]); err != nil {
				fmt.Fprintf(os.Stderr, "kiln: %v\n", err)
				os.Exit(1)
			}
			return
		case "describe":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "usage: kiln describe <model.onnx>")
				os.Exit(1)
			}
			if err := describe(os.Args[2]); err != nil {
				fmt.Fprintf(os.Stderr, "kiln: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("Kiln ML Framework - Training Control for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version            Show version")
	fmt.Println("  inspect <file>     Describe a .kiln checkpoint")
	fmt.Println("  describe <file>    Describe an .onnx model")
}

// inspect prints the header of a .kiln file: versions, tensors, metadata
// and the training state when one is stored.
func inspect(path string) error {
	r, err := serialization.NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	header := r.Header()
	fmt.Printf("%s\n", path)
	fmt.Printf("  format version: %d\n", header.FormatVersion)
	fmt.Printf("  written by:     kiln %s\n", header.KilnVersion)
	fmt.Printf("  created at:     %s\n", header.CreatedAt)

	if state := r.TrainState(); state != nil {
		fmt.Printf("  run:            %s\n", state.RunID)
		fmt.Printf("  progress:       epoch %d, step %d (%d applied, %d skipped)\n",
			state.Epoch, state.Step, state.OptimizationStep, state.SkippedSteps)
		fmt.Printf("  optimizer:      %s (lr %g)\n", state.OptimizerName, state.LR)
		if state.MixedPrecision {
			fmt.Printf("  loss scale:     %g (%d stable steps)\n", state.LossScale, state.StableSteps)
		}
	}

	if len(header.Metadata) > 0 {
		fmt.Println("  metadata:")
		keys := make([]string, 0, len(header.Metadata))
		for k := range header.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("    %s: %s\n", k, header.Metadata[k])
		}
	}

	var total int64
	for _, meta := range header.Tensors {
		total += meta.Size
	}
	fmt.Printf("  tensors:        %d (%d bytes)\n", len(header.Tensors), total)
	for _, meta := range header.Tensors {
		fmt.Printf("    %-40s %s %v\n", meta.Name, meta.DType, meta.Shape)
	}
	return nil
}

// describe prints an ONNX model's graph summary and its trainable
// weights.
func describe(path string) error {
	model, err := onnx.Load(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", path)
	if name := model.GraphName(); name != "" {
		fmt.Printf("  graph:          %s\n", name)
	}
	if producer := model.ProducerName(); producer != "" {
		fmt.Printf("  producer:       %s %s\n", producer, model.ProducerVersion())
	}
	fmt.Printf("  ir version:     %d\n", model.IRVersion())
	fmt.Printf("  opset:          %d\n", model.OpsetVersion())

	if inputs := model.Inputs(); len(inputs) > 0 {
		fmt.Println("  inputs:")
		for _, spec := range inputs {
			fmt.Printf("    %s\n", spec)
		}
	}
	if outputs := model.Outputs(); len(outputs) > 0 {
		fmt.Println("  outputs:")
		for _, spec := range outputs {
			fmt.Printf("    %s\n", spec)
		}
	}

	counts := model.OpCounts()
	ops := make([]string, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	fmt.Printf("  nodes:          %d\n", model.NodeCount())
	for _, op := range ops {
		fmt.Printf("    %-16s %d\n", op, counts[op])
	}

	var total int
	for _, w := range model.Weights() {
		total += w.ByteSize()
	}
	fmt.Printf("  weights:        %d of %d initializers (%d bytes)\n",
		len(model.WeightNames()), model.InitializerCount(), total)
	for _, name := range model.WeightNames() {
		w := model.Weights()[name]
		fmt.Printf("    %-40s %s %v\n", name, w.DType(), w.Shape())
	}
	return nil
}
