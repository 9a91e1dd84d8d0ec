// Package nn implements the neural network layers used by the makemore models.
//
// This package provides building blocks for constructing networks:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable parameters with gradient tracking
//   - Linear, Embedding: dense layers
//   - Tanh: activation
//   - BatchNorm1D: batch normalization with running statistics
//   - Flatten, FlattenConsecutive: shape adapters for MLP and WaveNet stacks
//   - Sequential: Container for stacking layers
//   - CrossEntropyLoss
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/born-ml/makemore/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[B](
//	    nn.NewLinear(60, 200, rng, backend),
//	    nn.NewTanh[B](),
//	    nn.NewLinear(200, 27, rng, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter[B]
}

// Switchable is implemented by modules whose behavior differs between
// training and evaluation (BatchNorm1D, and containers holding one).
type Switchable interface {
	SetTraining(training bool)
}

// Buffered is implemented by modules with non-trainable state that must be
// saved alongside the parameters (running statistics).
type Buffered[B tensor.Backend] interface {
	Buffers() []*Parameter[B]
}

// SetTraining switches m into training or evaluation mode if it cares.
func SetTraining[B tensor.Backend](m Module[B], training bool) {
	if s, ok := m.(Switchable); ok {
		s.SetTraining(training)
	}
}

// BuffersOf returns m's buffers, or nil if it has none.
func BuffersOf[B tensor.Backend](m Module[B]) []*Parameter[B] {
	if b, ok := m.(Buffered[B]); ok {
		return b.Buffers()
	}
	return nil
}
