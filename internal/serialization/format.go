// Package serialization reads and writes the .kiln checkpoint format.
//
// A .kiln file is a 64-byte fixed header, a JSON header and a tensor
// payload aligned to 64 bytes:
//
//	0x00  magic "KILN"
//	0x04  format version (uint32, little endian)
//	0x08  flags (uint32)
//	0x0C  reserved
//	0x10  JSON header size (uint64)
//	0x18  payload size (uint64)
//	0x20  SHA-256 checksum of the payload
//	0x40  JSON header, padding, tensor payload
//
// The JSON header carries tensor metadata, free-form string metadata and,
// for checkpoints, the training state snapshot. Tensors are laid out back
// to back in name order, so identical state dictionaries always produce
// identical payload bytes.
package serialization

import (
	"time"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "KILN"
	FormatVersion   = 1
	FixedHeaderSize = 64   // Fixed header length in bytes
	HeaderAlignment = 64   // Tensor payload alignment
	ChecksumSize    = 32   // SHA-256 digest length
	ChecksumOffset  = 0x20 // Digest position in the fixed header
)

// Flags in the fixed header.
const (
	FlagHasTrainState uint32 = 1 << 0 // training state snapshot present
	FlagHasMetadata   uint32 = 1 << 1 // custom metadata present
)

// Header is the JSON header of a .kiln file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	KilnVersion   string            `json:"kiln_version"`          // Library version that wrote the file
	CreatedAt     time.Time         `json:"created_at"`            // Write timestamp, UTC
	Tensors       []TensorMeta      `json:"tensors"`               // Payload layout
	Metadata      map[string]string `json:"metadata"`              // Free-form metadata
	TrainState    *TrainState       `json:"train_state,omitempty"` // Session snapshot, checkpoints only
}

// TrainState is the session snapshot stored in a checkpoint. Loss scale
// fields are meaningful only when MixedPrecision is set.
type TrainState struct {
	RunID            string  `json:"run_id"`            // Session that wrote the checkpoint
	Epoch            int     `json:"epoch"`             // Epoch at save time
	Step             int     `json:"step"`              // Micro steps run
	OptimizationStep int     `json:"optimization_step"` // Optimizer updates applied
	SkippedSteps     int     `json:"skipped_steps"`     // Updates discarded due to overflow
	OptimizerName    string  `json:"optimizer"`         // e.g. "AdamOptimizer"
	LR               float32 `json:"lr"`                // Base learning rate
	MixedPrecision   bool    `json:"mixed_precision"`
	LossScale        float32 `json:"loss_scale,omitempty"`
	StableSteps      int     `json:"stable_steps,omitempty"`
}

// TensorMeta locates one tensor inside the payload.
type TensorMeta struct {
	Name   string `json:"name"`   // Parameter name (e.g. "linear1.weight")
	DType  string `json:"dtype"`  // "float32", "float16" or "float64"
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Bytes from the start of the payload
	Size   int64  `json:"size"`   // Length in bytes
}

// ElementCount returns the number of elements the shape describes.
func (m *TensorMeta) ElementCount() int {
	return tensor.Shape(m.Shape).NumElements()
}
