// Package onnx reads ONNX model files for training intake.
//
// ONNX (Open Neural Network Exchange) is the interchange format the rest
// of the ecosystem exports to, so it is the natural way to hand Kiln a
// model to train. The package implements a hand-written protobuf wire
// decoder for .onnx files without external dependencies.
//
// Loading a model converts its float-family initializers (float32,
// float16, float64) into tensors; those become the trainable parameters.
// Integer initializers are graph constants and stay untouched. The graph
// itself is inventoried for summaries but never executed here; execution
// is the engine's job.
//
// Example:
//
//	model, err := onnx.Load("mnist.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s (opset %d), %d nodes\n",
//	    model.GraphName(), model.OpsetVersion(), model.NodeCount())
//	for _, name := range model.WeightNames() {
//	    w := model.Weights()[name]
//	    fmt.Printf("  %s: %s%v\n", name, w.DType(), w.Shape())
//	}
package onnx
