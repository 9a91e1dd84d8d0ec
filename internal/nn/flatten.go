package nn

import (
	"fmt"

	"github.com/born-ml/makemore/internal/tensor"
)

// Flatten collapses every dim after the first: [N, ...] -> [N, prod(...)].
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a Flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward flattens x.
func (f *Flatten[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("Flatten.Forward: expected at least 2D input, got %v", shape))
	}
	return x.Reshape(shape[0], -1)
}

// Parameters returns an empty slice.
func (f *Flatten[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}

// FlattenConsecutive fuses n consecutive time steps:
// [N, T, C] -> [N, T/n, C*n]. If T/n == 1 the time dim is dropped, giving
// [N, C*n].
//
// Stacking it between Linear layers builds the WaveNet-style hierarchy
// where each level sees pairs of the level below.
type FlattenConsecutive[B tensor.Backend] struct {
	n int
}

// NewFlattenConsecutive creates a FlattenConsecutive layer grouping n steps.
func NewFlattenConsecutive[B tensor.Backend](n int) *FlattenConsecutive[B] {
	if n <= 0 {
		panic(fmt.Sprintf("FlattenConsecutive: group size must be positive, got %d", n))
	}
	return &FlattenConsecutive[B]{n: n}
}

// Forward groups time steps.
func (f *FlattenConsecutive[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 || shape[1]%f.n != 0 {
		panic(fmt.Sprintf("FlattenConsecutive.Forward: expected [N, T, C] with T divisible by %d, got %v", f.n, shape))
	}
	n, t, c := shape[0], shape[1], shape[2]
	if t/f.n == 1 {
		return x.Reshape(n, c*f.n)
	}
	return x.Reshape(n, t/f.n, c*f.n)
}

// Parameters returns an empty slice.
func (f *FlattenConsecutive[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}
