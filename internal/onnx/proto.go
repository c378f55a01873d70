package onnx

import "fmt"

// ONNX protobuf data structures (hand-written).
//
// Only the messages and fields the training intake path consumes are
// declared; the parser skips everything else on the wire.

// ModelProto represents an ONNX model.
type ModelProto struct {
	IRVersion       int64               // IR version (e.g., 7, 8, 9)
	OpsetImport     []OperatorSetID     // Opset version(s)
	ProducerName    string              // Exporting framework (e.g., "pytorch")
	ProducerVersion string              // Framework version
	Domain          string              // Model domain
	ModelVersion    int64               // Model version number
	DocString       string              // Model description
	Graph           *GraphProto         // Computation graph
	MetadataProps   []StringStringEntry // Key-value metadata
}

// GraphProto represents the computation graph.
type GraphProto struct {
	Name         string           // Graph name
	Nodes        []NodeProto      // Operation nodes
	Inputs       []ValueInfoProto // Graph inputs
	Outputs      []ValueInfoProto // Graph outputs
	Initializers []TensorProto    // Weight and constant tensors
}

// NodeProto represents a single operation. Attributes are not decoded;
// the training layer never executes nodes, it only inventories them.
type NodeProto struct {
	Name    string   // Node name (optional)
	OpType  string   // Operation type (e.g., "Gemm", "MatMul", "Relu")
	Inputs  []string // Input tensor names
	Outputs []string // Output tensor names
	Domain  string   // Custom domain (empty for default)
}

// TensorProto represents an initializer tensor.
//
// Data lives either in RawData (little-endian, the common case) or in one
// of the legacy typed fields. Per the ONNX format, float16 legacy data is
// carried widened in Int32Data.
type TensorProto struct {
	Name       string    // Tensor name
	DataType   int32     // Element data type (TensorProto* constants)
	Dims       []int64   // Tensor shape
	RawData    []byte    // Raw binary data
	FloatData  []float32 // Legacy float32 data
	DoubleData []float64 // Legacy float64 data
	Int32Data  []int32   // Legacy int32 data; holds float16 bit patterns
}

// ValueInfoProto describes a graph input or output.
type ValueInfoProto struct {
	Name string     // Tensor name
	Type *TypeProto // Tensor type information
}

// TypeProto describes tensor type.
type TypeProto struct {
	TensorType *TensorTypeProto // Tensor type (most common)
}

// TensorTypeProto describes tensor shape and element type.
type TensorTypeProto struct {
	ElemType int32             // Element data type
	Shape    *TensorShapeProto // Tensor shape
}

// TensorShapeProto describes tensor dimensions.
type TensorShapeProto struct {
	Dims []DimensionProto // Dimensions
}

// DimensionProto describes a single dimension. At most one of DimValue
// and DimParam is set; DimParam names a symbolic dimension ("batch").
type DimensionProto struct {
	DimValue int64  // Static dimension value
	DimParam string // Symbolic dimension name
}

// OperatorSetID identifies opset version.
type OperatorSetID struct {
	Domain  string // Operator domain (empty for default)
	Version int64  // Opset version number
}

// StringStringEntry represents key-value metadata.
type StringStringEntry struct {
	Key   string
	Value string
}

// ONNX data types (TensorProto.DataType).
const (
	TensorProtoUndefined  = 0
	TensorProtoFloat      = 1  // float32
	TensorProtoUint8      = 2  // uint8
	TensorProtoInt8       = 3  // int8
	TensorProtoUint16     = 4  // uint16
	TensorProtoInt16      = 5  // int16
	TensorProtoInt32      = 6  // int32
	TensorProtoInt64      = 7  // int64
	TensorProtoString     = 8  // string
	TensorProtoBool       = 9  // bool
	TensorProtoFloat16    = 10 // float16
	TensorProtoDouble     = 11 // float64
	TensorProtoUint32     = 12 // uint32
	TensorProtoUint64     = 13 // uint64
	TensorProtoComplex64  = 14 // complex64
	TensorProtoComplex128 = 15 // complex128
	TensorProtoBfloat16   = 16 // bfloat16
)

// DataTypeName returns the ONNX name for a TensorProto data type, for
// error messages and model descriptions.
func DataTypeName(dt int32) string {
	switch dt {
	case TensorProtoFloat:
		return "float32"
	case TensorProtoUint8:
		return "uint8"
	case TensorProtoInt8:
		return "int8"
	case TensorProtoUint16:
		return "uint16"
	case TensorProtoInt16:
		return "int16"
	case TensorProtoInt32:
		return "int32"
	case TensorProtoInt64:
		return "int64"
	case TensorProtoString:
		return "string"
	case TensorProtoBool:
		return "bool"
	case TensorProtoFloat16:
		return "float16"
	case TensorProtoDouble:
		return "float64"
	case TensorProtoUint32:
		return "uint32"
	case TensorProtoUint64:
		return "uint64"
	case TensorProtoComplex64:
		return "complex64"
	case TensorProtoComplex128:
		return "complex128"
	case TensorProtoBfloat16:
		return "bfloat16"
	default:
		return fmt.Sprintf("unknown(%d)", dt)
	}
}
