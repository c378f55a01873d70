package training

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/onnx"
)

// ONNXModel adapts the float initializers of an ONNX graph into a
// trainable parameter set. Parameters keep the graph's initializer order
// and dtypes; freezing individual weights stays an options concern.
type ONNXModel struct {
	params    []*Parameter
	graphName string
	opset     int64
	inputs    []string
	outputs   []string
}

// LoadONNXModel reads an ONNX model file and exposes its weights as
// trainable parameters.
//
// Example:
//
//	model, err := training.LoadONNXModel("mnist.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	trainer, err := training.NewTrainer(model, engine, optCfg, opts)
func LoadONNXModel(path string) (*ONNXModel, error) {
	model, err := onnx.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load ONNX model: %w", err)
	}
	return NewONNXModel(model)
}

// NewONNXModel wraps an already loaded ONNX model.
func NewONNXModel(model *onnx.Model) (*ONNXModel, error) {
	names := model.WeightNames()
	if len(names) == 0 {
		return nil, fmt.Errorf("ONNX model %q has no float initializers to train", model.GraphName())
	}

	m := &ONNXModel{
		params:    make([]*Parameter, 0, len(names)),
		graphName: model.GraphName(),
		opset:     model.OpsetVersion(),
		inputs:    model.InputNames(),
		outputs:   model.OutputNames(),
	}
	weights := model.Weights()
	for _, name := range names {
		m.params = append(m.params, NewParameter(name, weights[name]))
	}
	return m, nil
}

// Parameters returns the trainable parameters in graph order.
func (m *ONNXModel) Parameters() []*Parameter {
	return m.params
}

// GraphName returns the source graph's name.
func (m *ONNXModel) GraphName() string {
	return m.graphName
}

// OpsetVersion returns the source model's default-domain opset version.
func (m *ONNXModel) OpsetVersion() int64 {
	return m.opset
}

// InputNames returns the graph's runtime input names.
func (m *ONNXModel) InputNames() []string {
	return m.inputs
}

// OutputNames returns the graph's output names.
func (m *ONNXModel) OutputNames() []string {
	return m.outputs
}
