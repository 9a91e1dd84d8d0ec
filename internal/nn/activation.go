package nn

import (
	"github.com/born-ml/makemore/internal/tensor"
)

// Tanh applies the hyperbolic tangent element-wise.
//
// Output range is (-1, 1); derivative is 1 - tanh²(x).
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a new Tanh activation.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies tanh.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Tanh()
}

// Parameters returns an empty slice.
func (t *Tanh[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}
