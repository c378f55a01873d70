package serialization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Validation limits. Malformed files must fail fast instead of exhausting
// memory.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // JSON header cap
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// ValidationLevel controls how thoroughly a reader checks a file.
type ValidationLevel int

const (
	// ValidationStrict runs every check, including payload layout.
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names, counts and metadata consistency only.
	ValidationNormal
	// ValidationNone skips validation. Only for trusted input.
	ValidationNone
)

// ValidateTensorName rejects names that could smuggle paths or bypass
// length checks downstream.
func ValidateTensorName(name string) error {
	if name == "" {
		return &ValidationError{
			Type:    "invalid_name",
			Details: "empty tensor name",
		}
	}
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}
	if strings.Contains(name, "..") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains '..' (path traversal attempt)",
		}
	}
	if strings.ContainsAny(name, "/\\") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains path separator (/ or \\)",
		}
	}
	if strings.Contains(name, "\x00") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains null byte",
		}
	}
	return nil
}

// ValidateTensorMeta checks that one tensor's declared dtype, shape and
// byte size agree with each other.
func ValidateTensorMeta(m *TensorMeta) error {
	dtype, ok := tensor.ParseDataType(m.DType)
	if !ok {
		return &ValidationError{
			Type:    "unknown_dtype",
			Tensor:  m.Name,
			Details: fmt.Sprintf("dtype %q", m.DType),
		}
	}
	if err := tensor.Shape(m.Shape).Validate(); err != nil {
		return &ValidationError{
			Type:    "invalid_shape",
			Tensor:  m.Name,
			Details: err.Error(),
		}
	}
	if want := int64(m.ElementCount() * dtype.Size()); m.Size != want {
		return &ValidationError{
			Type:    "size_mismatch",
			Tensor:  m.Name,
			Details: fmt.Sprintf("declared %d bytes, shape %v of %s needs %d", m.Size, m.Shape, m.DType, want),
		}
	}
	return nil
}

// ValidateTensorOffsets checks the payload layout: no negative regions, no
// overlap, nothing past the end of the payload. Overlapping regions would
// let one tensor read another's bytes.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d", t.Offset, t.Size),
			}
		}
		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > payload size %d", t.Offset, t.Size, dataSize),
			}
		}
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}
	return nil
}

// ValidateTrainState checks a checkpoint's session snapshot for values no
// session could have produced.
func ValidateTrainState(s *TrainState) error {
	if s == nil {
		return nil
	}
	if s.Epoch < 0 || s.Step < 0 || s.OptimizationStep < 0 || s.SkippedSteps < 0 {
		return &ValidationError{
			Type: "invalid_train_state",
			Details: fmt.Sprintf("negative counter: epoch=%d step=%d optimization_step=%d skipped=%d",
				s.Epoch, s.Step, s.OptimizationStep, s.SkippedSteps),
		}
	}
	if s.OptimizationStep+s.SkippedSteps > s.Step {
		return &ValidationError{
			Type: "invalid_train_state",
			Details: fmt.Sprintf("%d updates and %d skips exceed %d steps",
				s.OptimizationStep, s.SkippedSteps, s.Step),
		}
	}
	if s.MixedPrecision {
		if s.LossScale <= 0 {
			return &ValidationError{
				Type:    "invalid_train_state",
				Details: fmt.Sprintf("loss scale must be positive, got %v", s.LossScale),
			}
		}
		if s.StableSteps < 0 {
			return &ValidationError{
				Type:    "invalid_train_state",
				Details: fmt.Sprintf("stable steps must be non-negative, got %d", s.StableSteps),
			}
		}
	}
	return nil
}

// ValidateHeader checks the whole JSON header at the given level.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	for i := range h.Tensors {
		if err := ValidateTensorName(h.Tensors[i].Name); err != nil {
			return err
		}
		if err := ValidateTensorMeta(&h.Tensors[i]); err != nil {
			return err
		}
	}

	if err := ValidateTrainState(h.TrainState); err != nil {
		return err
	}

	// Layout scan costs a sort; strict mode only.
	if level == ValidationStrict {
		if err := ValidateTensorOffsets(h.Tensors, dataSize); err != nil {
			return err
		}
	}
	return nil
}
