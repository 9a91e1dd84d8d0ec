package nn

import (
	"fmt"

	"github.com/born-ml/makemore/internal/tensor"
)

// StateDict maps each tensor's name to its raw tensor.
// Returns an error if two tensors share a name.
func StateDict[B tensor.Backend](tensors []*Parameter[B]) (map[string]*tensor.RawTensor, error) {
	state := make(map[string]*tensor.RawTensor, len(tensors))
	for _, p := range tensors {
		if _, dup := state[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate tensor name %q", p.Name())
		}
		state[p.Name()] = p.Tensor().Raw()
	}
	return state, nil
}

// LoadStateDict copies values from state into tensors, matching by name.
//
// Every tensor must be present with the same shape and dtype; extra keys in
// state are rejected so that a checkpoint for a different architecture does
// not load silently.
func LoadStateDict[B tensor.Backend](tensors []*Parameter[B], state map[string]*tensor.RawTensor) error {
	seen := make(map[string]bool, len(tensors))
	for _, p := range tensors {
		raw, ok := state[p.Name()]
		if !ok {
			return fmt.Errorf("missing %s in state dict", p.Name())
		}

		if !raw.Shape().Equal(p.Tensor().Shape()) {
			return fmt.Errorf("%s shape mismatch: expected %v, got %v", p.Name(), p.Tensor().Shape(), raw.Shape())
		}
		if raw.DType() != tensor.Float32 {
			return fmt.Errorf("%s dtype mismatch: expected float32, got %v", p.Name(), raw.DType())
		}

		copy(p.Tensor().Data(), raw.AsFloat32())
		seen[p.Name()] = true
	}

	for name := range state {
		if !seen[name] {
			return fmt.Errorf("unexpected %s in state dict", name)
		}
	}
	return nil
}
