package ops

import "github.com/born-ml/makemore/internal/tensor"

// SumOp represents a full reduction to a scalar.
// Every input element receives the (scalar) output gradient.
type SumOp struct{ unaryOp }

// NewSumOp creates a new SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{unaryOp{input: input, output: output}}
}

// Backward broadcasts the scalar gradient over the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{expandTo(outputGrad, op.input.Shape(), backend)}
}

// SumDimOp represents a sum along one dimension.
//
// Backward pass:
//
//	grad_x = broadcast(grad, input_shape)  // the gradient of a sum is ones
type SumDimOp struct {
	unaryOp
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp. dim must already be non-negative.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{unaryOp: unaryOp{input: input, output: output}, dim: dim, keepDim: keepDim}
}

// Backward broadcasts outputGrad over the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{expandReduced(outputGrad, op.input.Shape(), op.dim, op.keepDim, backend)}
}

// MeanDimOp represents a mean along one dimension.
// Each input element receives grad / size(dim).
type MeanDimOp struct {
	unaryOp
	dim     int
	keepDim bool
}

// NewMeanDimOp creates a new MeanDimOp. dim must already be non-negative.
func NewMeanDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{unaryOp: unaryOp{input: input, output: output}, dim: dim, keepDim: keepDim}
}

// Backward broadcasts outputGrad / n over the reduced dimension.
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	grad := expandReduced(outputGrad, shape, op.dim, op.keepDim, backend)
	return []*tensor.RawTensor{backend.MulScalar(grad, 1/float32(shape[op.dim]))}
}

func expandReduced(grad *tensor.RawTensor, inputShape tensor.Shape, dim int, keepDim bool, backend tensor.Backend) *tensor.RawTensor {
	if !keepDim {
		grad = backend.Reshape(grad, keepDimShape(inputShape, dim))
	}
	return expandTo(grad, inputShape, backend)
}
