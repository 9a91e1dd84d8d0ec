package nn

import (
	"fmt"

	"github.com/born-ml/makemore/internal/tensor"
)

// CrossEntropyLoss computes mean(-log softmax(logits)[target]).
//
// The softmax and the log are fused on the backend, so the loss is stable for
// large logits and its gradient is (softmax - one_hot) / N.
//
// Example:
//
//	criterion := nn.NewCrossEntropyLoss[B]()
//	loss := criterion.Forward(logits, targets) // [N, 27], [N] -> scalar
type CrossEntropyLoss[B tensor.Backend] struct{}

// NewCrossEntropyLoss creates a new cross-entropy criterion.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{}
}

// Forward returns the scalar loss for logits [N, C] and int32 targets [N].
func (c *CrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	ls, ts := logits.Shape(), targets.Shape()
	if len(ls) != 2 || len(ts) != 1 || ls[0] != ts[0] {
		panic(fmt.Sprintf("CrossEntropyLoss: expected logits [N, C] and targets [N], got %v and %v", ls, ts))
	}
	return tensor.CrossEntropy(logits, targets)
}

// Parameters returns an empty slice.
func (c *CrossEntropyLoss[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{}
}
