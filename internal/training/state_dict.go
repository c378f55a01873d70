package training

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/serialization"
	"github.com/kiln-ml/kiln/internal/tensor"
)

// StateDict snapshots the model's parameters as a name-to-tensor map.
// The tensors are the live parameter buffers, not copies.
func StateDict(model Model) map[string]*tensor.RawTensor {
	params := model.Parameters()
	dict := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		dict[p.Name()] = p.Tensor()
	}
	return dict
}

// SaveStateDict writes the model's parameters as a weights-only .kiln
// file with no training state. Unlike SaveCheckpoint it needs no trainer
// and no accumulation boundary; weights only change at optimizer updates.
func SaveStateDict(path string, model Model, metadata map[string]string) error {
	dict := StateDict(model)
	if len(dict) == 0 {
		return fmt.Errorf("state dict: model has no parameters")
	}
	if err := serialization.WriteFile(path, dict, metadata); err != nil {
		return fmt.Errorf("state dict: %w", err)
	}
	return nil
}

// LoadStateDict warm starts the model from a .kiln file, copying saved
// bytes into the live parameter tensors and dropping any gradients.
//
// Every model parameter must be present with a matching shape and dtype.
// Extra tensors in the file are ignored, so a full training checkpoint
// also works as a weight source; its training state is ignored too. Use
// LoadCheckpoint to resume a session.
func LoadStateDict(path string, model Model) error {
	stateDict, _, err := serialization.ReadFile(path)
	if err != nil {
		return fmt.Errorf("state dict: %w", err)
	}

	params := model.Parameters()
	for _, p := range params {
		saved, ok := stateDict[p.Name()]
		if !ok {
			return fmt.Errorf("state dict: parameter %q not in file", p.Name())
		}
		current := p.Tensor()
		if saved.DType() != current.DType() || !saved.Shape().Equal(current.Shape()) {
			return fmt.Errorf("state dict: parameter %q is %s %v, file has %s %v",
				p.Name(), current.DType(), current.Shape(), saved.DType(), saved.Shape())
		}
	}

	// Verified above; the restore is all-or-nothing.
	for _, p := range params {
		copy(p.Tensor().Data(), stateDict[p.Name()].Data())
		p.ZeroGrad()
	}
	return nil
}
