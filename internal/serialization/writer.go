package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/kiln-ml/kiln/internal/tensor"
)

const kilnVersion = "0.1.0" // Current Kiln version

// Writer writes .kiln files.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a .kiln file writer at path, truncating any existing
// file.
func NewWriter(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &Writer{file: file}, nil
}

// WriteStateDict writes a bare state dictionary with optional metadata.
func (w *Writer) WriteStateDict(stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	return w.write(stateDict, Header{Metadata: metadata})
}

// WriteCheckpoint writes a state dictionary together with a session
// snapshot.
func (w *Writer) WriteCheckpoint(stateDict map[string]*tensor.RawTensor, state *TrainState, metadata map[string]string) error {
	if err := ValidateTrainState(state); err != nil {
		return err
	}
	return w.write(stateDict, Header{Metadata: metadata, TrainState: state})
}

func (w *Writer) write(stateDict map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return ErrWriterClosed
	}

	header.FormatVersion = FormatVersion
	header.KilnVersion = kilnVersion
	header.CreatedAt = time.Now().UTC()
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Name order fixes the payload layout, so the same state dictionary
	// always serializes to the same bytes.
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header.Tensors = make([]TensorMeta, 0, len(names))
	var payloadSize int64
	for _, name := range names {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		raw := stateDict[name]
		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  raw.DType().String(),
			Shape:  raw.Shape(),
			Offset: payloadSize,
			Size:   size,
		})
		payloadSize += size
	}

	hash := sha256.New()
	for _, name := range names {
		hash.Write(stateDict[name].Data())
	}
	var checksum [ChecksumSize]byte
	copy(checksum[:], hash.Sum(nil))

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)

	flags := uint32(0)
	if header.TrainState != nil {
		flags |= FlagHasTrainState
	}
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	// 0x0C-0x0F reserved, zero from make.
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(payloadSize))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.file.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	pos := int64(FixedHeaderSize) + int64(len(headerJSON))
	if padding := (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment; padding > 0 {
		if _, err := w.file.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	for _, name := range names {
		if _, err := w.file.Write(stateDict[name].Data()); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the writer and the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteFile writes a state dictionary to path in one call.
func WriteFile(path string, stateDict map[string]*tensor.RawTensor, metadata map[string]string) (err error) {
	w, err := NewWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return w.WriteStateDict(stateDict, metadata)
}

// WriteCheckpointFile writes a checkpoint to path in one call.
func WriteCheckpointFile(path string, stateDict map[string]*tensor.RawTensor, state *TrainState, metadata map[string]string) (err error) {
	w, err := NewWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return w.WriteCheckpoint(stateDict, state, metadata)
}
