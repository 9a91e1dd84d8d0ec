package cpu

import (
	"fmt"

	"github.com/born-ml/makemore/internal/tensor"
)

// Reshape returns a copy of t with a new shape. The element count must match.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}
	return t.Clone().View(newShape)
}

// Transpose swaps the dimensions of a 2D tensor.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor) *tensor.RawTensor {
	shape := t.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("transpose: only 2D tensors supported, got %dD", len(shape)))
	}
	rows, cols := shape[0], shape[1]

	result, err := tensor.NewRaw(tensor.Shape{cols, rows}, t.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		transpose2D(result.AsFloat32(), t.AsFloat32(), rows, cols)
	case tensor.Int32:
		transpose2D(result.AsInt32(), t.AsInt32(), rows, cols)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}

	return result
}

func transpose2D[T float32 | int32](dst, src []T, rows, cols int) {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst[j*rows+i] = src[i*cols+j]
		}
	}
}
