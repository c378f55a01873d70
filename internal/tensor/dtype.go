// Package tensor provides the numeric buffer types for the Kiln training layer.
package tensor

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
//
// Float16 is stored as raw IEEE 754 half-precision bits in a []uint16;
// Go has no native half type, so conversions go through Float32ToFloat16
// and Float16ToFloat32.
const (
	Float32 DataType = iota
	Float16
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float16:
		return 2
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// ParseDataType maps a dtype name back to its DataType.
// It is the inverse of String and is used when reading state files.
func ParseDataType(s string) (DataType, bool) {
	switch s {
	case "float32":
		return Float32, true
	case "float16":
		return Float16, true
	case "float64":
		return Float64, true
	default:
		return 0, false
	}
}
