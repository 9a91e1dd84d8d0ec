package nn

import (
	"fmt"

	"github.com/born-ml/makemore/internal/tensor"
)

// BatchNorm1D normalizes features over the batch.
//
// Input is [N, C] or [N, T, C]; statistics are taken over every dim except
// the last, so a [N, T, C] input is normalized over N*T rows.
//
// Training mode:
//
//	y = gamma * (x - mean_batch) / sqrt(var_batch + eps) + beta
//	running = (1 - momentum) * running + momentum * batch_stat
//
// Evaluation mode uses the running statistics instead. Variance is the biased
// (population) estimate in both places.
type BatchNorm1D[B tensor.Backend] struct {
	numFeatures int
	eps         float32
	momentum    float32
	training    bool

	gamma       *Parameter[B] // [C]
	beta        *Parameter[B] // [C]
	runningMean *Parameter[B] // [C], buffer
	runningVar  *Parameter[B] // [C], buffer
}

// Defaults match the usual BatchNorm1d settings.
const (
	DefaultBatchNormEps      = 1e-5
	DefaultBatchNormMomentum = 0.1
)

// NewBatchNorm1D creates a batch norm layer over numFeatures channels,
// starting in training mode.
func NewBatchNorm1D[B tensor.Backend](numFeatures int, backend B) *BatchNorm1D[B] {
	shape := tensor.Shape{numFeatures}
	return &BatchNorm1D[B]{
		numFeatures: numFeatures,
		eps:         DefaultBatchNormEps,
		momentum:    DefaultBatchNormMomentum,
		training:    true,
		gamma:       NewParameter("gamma", Ones(shape, backend)),
		beta:        NewParameter("beta", Zeros(shape, backend)),
		runningMean: NewParameter("running_mean", Zeros(shape, backend)),
		runningVar:  NewParameter("running_var", Ones(shape, backend)),
	}
}

// Forward normalizes x.
func (bn *BatchNorm1D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if (len(shape) != 2 && len(shape) != 3) || shape.Last() != bn.numFeatures {
		panic(fmt.Sprintf("BatchNorm1D.Forward: expected [N, %d] or [N, T, %d], got %v",
			bn.numFeatures, bn.numFeatures, shape))
	}

	rows := x.Reshape(-1, bn.numFeatures) // [M, C]

	var normalized *tensor.Tensor[float32, B]
	if bn.training {
		mean := rows.MeanDim(0, true) // [1, C]
		centered := rows.Sub(mean)
		variance := centered.Mul(centered).MeanDim(0, true)
		normalized = centered.Div(variance.AddScalar(bn.eps).Sqrt())
		bn.updateRunning(mean.Data(), variance.Data())
	} else {
		mean := bn.runningMean.Tensor().Reshape(1, bn.numFeatures)
		variance := bn.runningVar.Tensor().Reshape(1, bn.numFeatures)
		normalized = rows.Sub(mean).Div(variance.AddScalar(bn.eps).Sqrt())
	}

	out := normalized.Mul(bn.gamma.Tensor()).Add(bn.beta.Tensor())
	return out.Reshape(shape...)
}

func (bn *BatchNorm1D[B]) updateRunning(mean, variance []float32) {
	rm := bn.runningMean.Tensor().Data()
	rv := bn.runningVar.Tensor().Data()
	for i := range rm {
		rm[i] = (1-bn.momentum)*rm[i] + bn.momentum*mean[i]
		rv[i] = (1-bn.momentum)*rv[i] + bn.momentum*variance[i]
	}
}

// Parameters returns [gamma, beta].
func (bn *BatchNorm1D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{bn.gamma, bn.beta}
}

// Buffers returns [running_mean, running_var].
func (bn *BatchNorm1D[B]) Buffers() []*Parameter[B] {
	return []*Parameter[B]{bn.runningMean, bn.runningVar}
}

// SetTraining switches between batch and running statistics.
func (bn *BatchNorm1D[B]) SetTraining(training bool) {
	bn.training = training
}

// Training reports whether batch statistics are in use.
func (bn *BatchNorm1D[B]) Training() bool {
	return bn.training
}

// RunningMean returns the running mean buffer.
func (bn *BatchNorm1D[B]) RunningMean() *tensor.Tensor[float32, B] {
	return bn.runningMean.Tensor()
}

// RunningVar returns the running variance buffer.
func (bn *BatchNorm1D[B]) RunningVar() *tensor.Tensor[float32, B] {
	return bn.runningVar.Tensor()
}
