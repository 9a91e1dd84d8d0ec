package nn

import (
	"github.com/born-ml/makemore/internal/tensor"
)

// Parameter represents a named tensor owned by a layer.
//
// Trainable parameters (weights, biases) are returned by Module.Parameters
// and updated by optimizers. Buffers (running statistics) use the same type
// so they can be saved by name, but are never handed to an optimizer.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
	grad   *tensor.Tensor[float32, B]
}

// NewParameter creates a new parameter around an initialized tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// SetName replaces the parameter name.
func (p *Parameter[B]) SetName(name string) {
	p.name = name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the last gradient stored with SetGrad, or nil.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// PrefixParameters renames each parameter to prefix + "." + name.
//
// Layers name their own tensors ("weight", "bias"); models call this once
// per layer so that state dict keys are unique:
//
//	nn.PrefixParameters("hidden.0", layer.Parameters()) // hidden.0.weight, hidden.0.bias
func PrefixParameters[B tensor.Backend](prefix string, params []*Parameter[B]) {
	for _, p := range params {
		p.name = prefix + "." + p.name
	}
}

// NumParameters returns the total element count of params.
func NumParameters[B tensor.Backend](params []*Parameter[B]) int {
	n := 0
	for _, p := range params {
		n += p.tensor.NumElements()
	}
	return n
}
