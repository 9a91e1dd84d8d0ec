package cpu

import (
	"fmt"

	"github.com/born-ml/makemore/internal/tensor"
)

// SumDim sums tensor elements along the specified dimension.
//
// Parameters:
//   - dim: dimension to reduce (supports negative indexing: -1 = last dim)
//   - keepDim: if true, keep the reduced dimension with size 1; if false, remove it
//
// Example:
//
//	x := tensor.Randn(tensor.Shape{2, 3, 4}, rng, backend)
//	y := backend.SumDim(x.Raw(), -1, true)   // shape: [2, 3, 1]
//	z := backend.SumDim(x.Raw(), -1, false)  // shape: [2, 3]
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("sumdim: dimension %d out of range for %dD tensor", dim, ndim))
	}
	requireFloat32("sumdim", x)

	result := cpu.newFloat32("sumdim", reducedShape(shape, dim, keepDim))
	sumDimFloat32(x.AsFloat32(), result.AsFloat32(), shape, dim)
	return result
}

// MeanDim averages tensor elements along the specified dimension.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	sum := cpu.SumDim(x, dim, keepDim)

	if dim < 0 {
		dim += len(x.Shape())
	}
	inv := 1 / float32(x.Shape()[dim])

	data := sum.AsFloat32()
	for i := range data {
		data[i] *= inv
	}
	return sum
}

// Sum reduces all elements to a scalar (shape []).
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32("sum", x)

	var total float64
	for _, v := range x.AsFloat32() {
		total += float64(v)
	}

	result := cpu.newFloat32("sum", tensor.Shape{})
	result.AsFloat32()[0] = float32(total)
	return result
}

func sumDimFloat32(data, result []float32, shape tensor.Shape, dim int) {
	outer, inner := splitAround(shape, dim)
	size := shape[dim]

	for o := 0; o < outer; o++ {
		for d := 0; d < size; d++ {
			src := data[(o*size+d)*inner : (o*size+d+1)*inner]
			dst := result[o*inner : (o+1)*inner]
			for i, v := range src {
				dst[i] += v
			}
		}
	}
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	return out
}
