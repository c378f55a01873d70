package onnx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Model is a parsed ONNX model prepared for training intake.
//
// Loading converts every float-family initializer (float32, float16,
// float64) into a tensor; those are the trainable weight candidates.
// Integer initializers are graph constants (shape arguments, index
// tables) and are left on the proto. Nodes are inventoried but never
// executed; graph execution belongs to the engine.
type Model struct {
	proto       *ModelProto
	weights     map[string]*tensor.RawTensor
	weightNames []string
	inputs      []IOSpec
	outputs     []IOSpec
	opset       int64
}

// IOSpec describes one graph input or output.
type IOSpec struct {
	Name  string
	DType string   // ONNX element type name, empty when untyped
	Dims  []string // static dims as numbers, symbolic dims by name
}

// String renders the IO spec the way model summaries print it, e.g.
// "images: float32[batch, 784]".
func (s IOSpec) String() string {
	if s.DType == "" {
		return s.Name
	}
	if len(s.Dims) == 0 {
		return s.Name + ": " + s.DType
	}
	return fmt.Sprintf("%s: %s[%s]", s.Name, s.DType, strings.Join(s.Dims, ", "))
}

// Load parses an ONNX model file and prepares it for training intake.
//
// Example:
//
//	model, err := onnx.Load("mnist.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, name := range model.WeightNames() {
//	    fmt.Println(name, model.Weights()[name].Shape())
//	}
func Load(path string) (*Model, error) {
	proto, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return FromProto(proto)
}

// LoadBytes parses an ONNX model held in memory.
func LoadBytes(data []byte) (*Model, error) {
	proto, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return FromProto(proto)
}

// FromProto prepares a parsed ModelProto for training intake.
func FromProto(proto *ModelProto) (*Model, error) {
	if proto.Graph == nil {
		return nil, fmt.Errorf("model has no graph")
	}
	graph := proto.Graph

	m := &Model{
		proto:   proto,
		weights: make(map[string]*tensor.RawTensor),
	}

	initNames := make(map[string]bool, len(graph.Initializers))
	for i := range graph.Initializers {
		init := &graph.Initializers[i]
		if init.Name == "" {
			return nil, fmt.Errorf("initializer %d has no name", i)
		}
		if initNames[init.Name] {
			return nil, fmt.Errorf("duplicate initializer %q", init.Name)
		}
		initNames[init.Name] = true

		if !isFloatFamily(init.DataType) {
			continue
		}
		w, err := weightFromProto(init)
		if err != nil {
			return nil, fmt.Errorf("initializer %q: %w", init.Name, err)
		}
		m.weights[init.Name] = w
		m.weightNames = append(m.weightNames, init.Name)
	}

	// Graph inputs minus initializers are the runtime inputs.
	for i := range graph.Inputs {
		if initNames[graph.Inputs[i].Name] {
			continue
		}
		m.inputs = append(m.inputs, ioSpec(&graph.Inputs[i]))
	}
	for i := range graph.Outputs {
		m.outputs = append(m.outputs, ioSpec(&graph.Outputs[i]))
	}

	for _, opset := range proto.OpsetImport {
		if opset.Domain == "" || opset.Domain == "ai.onnx" {
			m.opset = opset.Version
			break
		}
	}

	return m, nil
}

// GraphName returns the computation graph's name.
func (m *Model) GraphName() string {
	return m.proto.Graph.Name
}

// ProducerName returns the exporting framework's name.
func (m *Model) ProducerName() string {
	return m.proto.ProducerName
}

// ProducerVersion returns the exporting framework's version.
func (m *Model) ProducerVersion() string {
	return m.proto.ProducerVersion
}

// IRVersion returns the ONNX IR version.
func (m *Model) IRVersion() int64 {
	return m.proto.IRVersion
}

// OpsetVersion returns the default-domain opset version.
func (m *Model) OpsetVersion() int64 {
	return m.opset
}

// Metadata returns the model's key-value metadata properties.
func (m *Model) Metadata() map[string]string {
	meta := make(map[string]string, len(m.proto.MetadataProps))
	for _, prop := range m.proto.MetadataProps {
		meta[prop.Key] = prop.Value
	}
	return meta
}

// Inputs returns the runtime inputs (graph inputs minus initializers).
func (m *Model) Inputs() []IOSpec {
	return m.inputs
}

// Outputs returns the graph outputs.
func (m *Model) Outputs() []IOSpec {
	return m.outputs
}

// InputNames returns the runtime input names in graph order.
func (m *Model) InputNames() []string {
	names := make([]string, len(m.inputs))
	for i, spec := range m.inputs {
		names[i] = spec.Name
	}
	return names
}

// OutputNames returns the graph output names in graph order.
func (m *Model) OutputNames() []string {
	names := make([]string, len(m.outputs))
	for i, spec := range m.outputs {
		names[i] = spec.Name
	}
	return names
}

// NodeCount returns the number of operation nodes in the graph.
func (m *Model) NodeCount() int {
	return len(m.proto.Graph.Nodes)
}

// OpCounts returns a histogram of operation types in the graph.
func (m *Model) OpCounts() map[string]int {
	counts := make(map[string]int)
	for i := range m.proto.Graph.Nodes {
		counts[m.proto.Graph.Nodes[i].OpType]++
	}
	return counts
}

// InitializerCount returns the total number of graph initializers,
// including non-float constants that are not weight candidates.
func (m *Model) InitializerCount() int {
	return len(m.proto.Graph.Initializers)
}

// Weights returns the float-family initializers as tensors, keyed by
// initializer name. The tensors are owned by the caller; training
// updates them in place.
func (m *Model) Weights() map[string]*tensor.RawTensor {
	return m.weights
}

// WeightNames returns the weight names in graph order.
func (m *Model) WeightNames() []string {
	return m.weightNames
}

func isFloatFamily(dt int32) bool {
	return dt == TensorProtoFloat || dt == TensorProtoFloat16 || dt == TensorProtoDouble
}

// weightFromProto converts a float-family initializer into a tensor.
func weightFromProto(tp *TensorProto) (*tensor.RawTensor, error) {
	shape := make(tensor.Shape, len(tp.Dims))
	for i, d := range tp.Dims {
		shape[i] = int(d)
	}

	var dtype tensor.DataType
	switch tp.DataType {
	case TensorProtoFloat:
		dtype = tensor.Float32
	case TensorProtoFloat16:
		dtype = tensor.Float16
	case TensorProtoDouble:
		dtype = tensor.Float64
	default:
		return nil, fmt.Errorf("unsupported data type %s", DataTypeName(tp.DataType))
	}

	if len(tp.RawData) > 0 {
		// Copy so the weight does not alias the parsed file buffer;
		// training mutates weights in place.
		data := make([]byte, len(tp.RawData))
		copy(data, tp.RawData)
		return tensor.FromBytes(shape, dtype, data)
	}

	// Legacy typed data fields.
	raw, err := tensor.NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}
	n := shape.NumElements()
	switch dtype {
	case tensor.Float32:
		if len(tp.FloatData) != n {
			return nil, fmt.Errorf("float_data has %d values, want %d", len(tp.FloatData), n)
		}
		copy(raw.AsFloat32(), tp.FloatData)
	case tensor.Float64:
		if len(tp.DoubleData) != n {
			return nil, fmt.Errorf("double_data has %d values, want %d", len(tp.DoubleData), n)
		}
		copy(raw.AsFloat64(), tp.DoubleData)
	case tensor.Float16:
		if len(tp.Int32Data) != n {
			return nil, fmt.Errorf("int32_data has %d values, want %d", len(tp.Int32Data), n)
		}
		dst := raw.AsFloat16()
		for i, v := range tp.Int32Data {
			dst[i] = uint16(v) //nolint:gosec // G115: float16 bits are stored widened in int32_data.
		}
	}
	return raw, nil
}

func ioSpec(vi *ValueInfoProto) IOSpec {
	spec := IOSpec{Name: vi.Name}
	if vi.Type == nil || vi.Type.TensorType == nil {
		return spec
	}
	tt := vi.Type.TensorType
	if tt.ElemType != TensorProtoUndefined {
		spec.DType = DataTypeName(tt.ElemType)
	}
	if tt.Shape == nil {
		return spec
	}
	for _, dim := range tt.Shape.Dims {
		switch {
		case dim.DimParam != "":
			spec.Dims = append(spec.Dims, dim.DimParam)
		case dim.DimValue > 0:
			spec.Dims = append(spec.Dims, strconv.FormatInt(dim.DimValue, 10))
		default:
			spec.Dims = append(spec.Dims, "?")
		}
	}
	return spec
}
