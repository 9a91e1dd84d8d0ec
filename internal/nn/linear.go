package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/makemore/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//     (or [batch_size, time, in_features], see Forward)
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//
// Example:
//
//	layer := nn.NewLinear(60, 200, rng, backend)
//	output := layer.Forward(input) // [32, 60] -> [32, 200]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features], nil without bias
}

type linearOptions struct {
	bias        bool
	kaiming     bool
	gain        float64
	weightScale float32
}

// LinearOption configures NewLinear.
type LinearOption func(*linearOptions)

// WithoutBias drops the bias term, e.g. when a BatchNorm1D follows.
func WithoutBias() LinearOption {
	return func(o *linearOptions) { o.bias = false }
}

// WithKaimingNormal initializes weights from N(0, (gain/sqrt(in))²)
// instead of Xavier uniform.
func WithKaimingNormal(gain float64) LinearOption {
	return func(o *linearOptions) {
		o.kaiming = true
		o.gain = gain
	}
}

// WithWeightScale multiplies the initial weights by s. Output layers use a
// small scale so the initial logits are close to uniform.
func WithWeightScale(s float32) LinearOption {
	return func(o *linearOptions) { o.weightScale = s }
}

// NewLinear creates a new Linear layer.
//
// Weights are initialized using Xavier/Glorot uniform distribution unless an
// option says otherwise. Biases are initialized to zeros.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B, opts ...LinearOption) *Linear[B] {
	o := linearOptions{bias: true, weightScale: 1}
	for _, opt := range opts {
		opt(&o)
	}

	weightShape := tensor.Shape{outFeatures, inFeatures}
	var w *tensor.Tensor[float32, B]
	if o.kaiming {
		w = KaimingNormal(inFeatures, o.gain, weightShape, rng, backend)
	} else {
		w = Xavier(inFeatures, outFeatures, weightShape, rng, backend)
	}
	if o.weightScale != 1 {
		data := w.Data()
		for i := range data {
			data[i] *= o.weightScale
		}
	}

	l := &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", w),
	}
	if o.bias {
		l.bias = NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend))
	}
	return l
}

// Forward computes the output of the linear layer.
//
// 2D input [batch, in] gives [batch, out]. 3D input [batch, time, in] is
// flattened over its leading dims and gives [batch, time, out].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 2 && len(inputShape) != 3 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D or 3D input, got shape %v", inputShape))
	}
	if inputShape.Last() != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape.Last()))
	}

	x := input
	if len(inputShape) == 3 {
		x = input.Reshape(-1, l.inFeatures)
	}

	// [rows, in] @ [in, out] = [rows, out]
	output := x.MatMul(l.weight.Tensor().Transpose())
	if l.bias != nil {
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}

	if len(inputShape) == 3 {
		output = output.Reshape(inputShape[0], inputShape[1], l.outFeatures)
	}
	return output
}

// Parameters returns [weight, bias], or [weight] without bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter (nil without bias).
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}
