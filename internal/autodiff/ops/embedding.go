package ops

import (
	"github.com/born-ml/makemore/internal/tensor"
)

// EmbeddingOp represents an embedding lookup operation.
//
// Forward: output[i] = weight[indices[i]]
//
// Backward:
//
//	For each index i, accumulate grad_output[i] to grad_weight[indices[i]].
//	Gradients for a row used several times are summed.
//
// Example:
//
//	indices = [0, 1, 0]
//	grad_output = [[1,2], [3,4], [5,6]]
//	grad_weight[0] = [1,2] + [5,6] = [6,8]
//	grad_weight[1] = [3,4]
type EmbeddingOp struct {
	weight  *tensor.RawTensor // [numEmbeddings, embeddingDim]
	indices *tensor.RawTensor // int32, any shape
	output  *tensor.RawTensor // [..., embeddingDim]
}

// NewEmbeddingOp creates a new embedding operation.
func NewEmbeddingOp(weight, indices, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{
		weight:  weight,
		indices: indices,
		output:  output,
	}
}

// Inputs returns [weight]; indices carry no gradient.
func (op *EmbeddingOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.weight}
}

// Output returns the output tensor.
func (op *EmbeddingOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward scatter-adds outputGrad rows into a zero weight gradient.
func (op *EmbeddingOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	weightShape := op.weight.Shape()
	embeddingDim := weightShape[1]

	gradWeight := tensor.MustRaw(weightShape, tensor.Float32, backend.Device())
	dst := gradWeight.AsFloat32()
	src := outputGrad.AsFloat32()

	for i, idx := range op.indices.AsInt32() {
		row := dst[int(idx)*embeddingDim : (int(idx)+1)*embeddingDim]
		for j, g := range src[i*embeddingDim : (i+1)*embeddingDim] {
			row[j] += g
		}
	}

	return []*tensor.RawTensor{gradWeight}
}
