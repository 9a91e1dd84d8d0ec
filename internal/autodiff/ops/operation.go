// Package ops defines the differentiable operations recorded on the tape.
//
// Each operation keeps references to its inputs and output from the forward
// pass and turns an output gradient into input gradients:
//   - AddOp, SubOp: broadcast-aware (gradients are summed back to input shape)
//   - MulOp, DivOp: product and quotient rules
//   - MatMulOp: d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad
//   - ReshapeOp, TransposeOp: route the gradient back through the view
//   - ExpOp, LogOp, SqrtOp, TanhOp, SoftmaxOp: element-wise derivatives
//   - SumOp, SumDimOp, MeanDimOp: broadcast the gradient over reduced dims
//   - EmbeddingOp: scatter-add into the weight rows
//   - CrossEntropyOp: (softmax - one_hot) / N
package ops

import "github.com/born-ml/makemore/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// The returned slice lines up with Inputs(); a nil entry means no
	// gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

// unaryOp holds the bookkeeping shared by single-input operations.
type unaryOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// Inputs returns [input].
func (op *unaryOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the operation result.
func (op *unaryOp) Output() *tensor.RawTensor {
	return op.output
}

// binaryOp holds the bookkeeping shared by two-input operations.
type binaryOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// Inputs returns [a, b].
func (op *binaryOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the operation result.
func (op *binaryOp) Output() *tensor.RawTensor {
	return op.output
}
