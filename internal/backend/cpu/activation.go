package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/makemore/internal/parallel"
	"github.com/born-ml/makemore/internal/tensor"
)

// Softmax computes softmax along the specified dimension.
// Softmax(x_i) = exp(x_i - max) / sum(exp(x_j - max)) for all j in dimension.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("softmax: dimension %d out of range for tensor of rank %d", dim, ndim))
	}
	requireFloat32("softmax", x)

	result := cpu.newFloat32("softmax", shape)
	softmaxFloat32(result.AsFloat32(), x.AsFloat32(), shape, dim, cpu.par)
	return result
}

func softmaxFloat32(dst, src []float32, shape tensor.Shape, dim int, cfg parallel.Config) {
	outer, inner := splitAround(shape, dim)
	size := shape[dim]

	parallel.For(outer*inner, func(row int) {
		o, in := row/inner, row%inner
		base := o*size*inner + in

		maxVal := float32(math.Inf(-1))
		for d := 0; d < size; d++ {
			if v := src[base+d*inner]; v > maxVal {
				maxVal = v
			}
		}

		var sum float64
		for d := 0; d < size; d++ {
			e := math.Exp(float64(src[base+d*inner] - maxVal))
			dst[base+d*inner] = float32(e)
			sum += e
		}

		inv := float32(1 / sum)
		for d := 0; d < size; d++ {
			dst[base+d*inner] *= inv
		}
	}, cfg)
}
