package ops

import "github.com/born-ml/makemore/internal/tensor"

// ExpOp represents output = exp(x). d/dx = exp(x) = output.
type ExpOp struct{ unaryOp }

// NewExpOp creates a new ExpOp.
func NewExpOp(input, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{unaryOp{input: input, output: output}}
}

// Backward returns outputGrad * output.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// LogOp represents output = ln(x). d/dx = 1/x.
type LogOp struct{ unaryOp }

// NewLogOp creates a new LogOp.
func NewLogOp(input, output *tensor.RawTensor) *LogOp {
	return &LogOp{unaryOp{input: input, output: output}}
}

// Backward returns outputGrad / x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.input)}
}

// SqrtOp represents output = sqrt(x). d/dx = 1 / (2 sqrt(x)).
type SqrtOp struct{ unaryOp }

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{unaryOp{input: input, output: output}}
}

// Backward returns outputGrad * 0.5 / output.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(backend.MulScalar(outputGrad, 0.5), op.output)}
}

// TanhOp represents output = tanh(x). d/dx = 1 - tanh²(x).
type TanhOp struct{ unaryOp }

// NewTanhOp creates a new TanhOp.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{unaryOp{input: input, output: output}}
}

// Backward returns outputGrad * (1 - output²).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	oneMinusSq := backend.AddScalar(backend.MulScalar(backend.Mul(op.output, op.output), -1), 1)
	return []*tensor.RawTensor{backend.Mul(outputGrad, oneMinusSq)}
}

// SoftmaxOp represents output = softmax(x) along dim.
//
// Backward pass:
//
//	grad_x = output * (grad - sum(grad * output, dim))
type SoftmaxOp struct {
	unaryOp
	dim int
}

// NewSoftmaxOp creates a new SoftmaxOp. dim must already be non-negative.
func NewSoftmaxOp(input, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{unaryOp: unaryOp{input: input, output: output}, dim: dim}
}

// Backward computes the softmax Jacobian-vector product.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	dot := backend.SumDim(backend.Mul(outputGrad, op.output), op.dim, true)
	return []*tensor.RawTensor{backend.Mul(op.output, backend.Sub(outputGrad, dot))}
}
