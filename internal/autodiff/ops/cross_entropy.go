package ops

import (
	"github.com/born-ml/makemore/internal/tensor"
)

// CrossEntropyOp represents the fused softmax + negative log-likelihood loss.
//
// Forward:
//
//	Loss = mean(-log_softmax(logits)[targets])
//
// Backward:
//
//	∂L/∂logits = (softmax(logits) - y_one_hot) / batch_size
//
// Assumptions:
//   - Logits shape: [batch_size, num_classes]
//   - Targets shape: [batch_size] (int32 class indices)
//   - Output: scalar loss
type CrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewCrossEntropyOp creates a new cross-entropy operation.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{
		logits:  logits,
		targets: targets,
		output:  output,
	}
}

// Inputs returns [logits]; targets carry no gradient.
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the scalar loss.
func (op *CrossEntropyOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the gradient with respect to logits.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	n, c := shape[0], shape[1]

	grad := backend.Softmax(op.logits, 1)
	data := grad.AsFloat32()
	for i, t := range op.targets.AsInt32() {
		data[i*c+int(t)] -= 1
	}

	scale := outputGrad.AsFloat32()[0] / float32(n)
	return []*tensor.RawTensor{backend.MulScalar(grad, scale)}
}
