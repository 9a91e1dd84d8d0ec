package cpu

import (
	"github.com/born-ml/makemore/internal/tensor"
)

// computeBroadcastStridesForShape returns strides for reading inShape as if
// it had outShape. Missing leading dims and size-1 dims get stride 0.
func computeBroadcastStridesForShape(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	strides := make([]int, outDim)
	for i := offset; i < outDim; i++ {
		if inShape[i-offset] != 1 {
			strides[i] = origStrides[i-offset]
		}
	}
	return strides
}

// computeFlatIndex maps a flat output index to the flat input index.
func computeFlatIndex(outIdx int, outStrides, inStrides []int) int {
	flatIdx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flatIdx += coord * inStrides[i]
	}
	return flatIdx
}

// splitAround returns the products of dims before and after dim.
// A [outer, shape[dim], inner] view of a row-major tensor addresses element
// (o, d, i) at o*shape[dim]*inner + d*inner + i.
func splitAround(shape tensor.Shape, dim int) (outer, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, inner
}
