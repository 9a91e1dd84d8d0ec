package model

import (
	"fmt"

	"github.com/born-ml/makemore/internal/autodiff"
	"github.com/born-ml/makemore/internal/generate"
	"github.com/born-ml/makemore/internal/tensor"
	"github.com/born-ml/makemore/internal/vocab"
)

// Predictor adapts a trained Model to generate.Predictor.
//
// Predict switches the model to evaluation mode and leaves it there, so
// batch norm layers use their running statistics. Nothing is recorded on an
// autodiff tape.
type Predictor[B tensor.Backend] struct {
	model       Model[B]
	backend     B
	temperature float32
}

var _ generate.Predictor = (*Predictor[tensor.Backend])(nil)

// PredictorOption configures a Predictor.
type PredictorOption func(*predictorOptions)

type predictorOptions struct {
	temperature float32
}

// WithTemperature divides the logits by t before the softmax. Values below
// 1 sharpen the distribution, values above 1 flatten it. Non-positive values
// are ignored.
func WithTemperature(t float32) PredictorOption {
	return func(o *predictorOptions) {
		if t > 0 {
			o.temperature = t
		}
	}
}

// NewPredictor wraps m. backend must be the backend m was built on.
func NewPredictor[B tensor.Backend](m Model[B], backend B, opts ...PredictorOption) *Predictor[B] {
	o := predictorOptions{temperature: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return &Predictor[B]{
		model:       m,
		backend:     backend,
		temperature: o.temperature,
	}
}

// Predict returns the softmax of the model's logits for one context.
func (p *Predictor[B]) Predict(context []int32) ([]float64, error) {
	width := p.model.ContextWidth()
	if len(context) != width {
		return nil, fmt.Errorf("context has %d symbols, model needs %d", len(context), width)
	}
	for _, c := range context {
		if !vocab.Valid(c) {
			return nil, fmt.Errorf("context: %w %d", vocab.ErrInvalidCode, c)
		}
	}

	input, err := tensor.FromSlice(append([]int32{}, context...), tensor.Shape{1, width}, p.backend)
	if err != nil {
		return nil, fmt.Errorf("context tensor: %w", err)
	}

	var probs []float32
	autodiff.NoGrad(p.backend, func() {
		p.model.SetTraining(false)
		logits := p.model.Forward(input)
		if p.temperature != 1 {
			logits = logits.MulScalar(1 / p.temperature)
		}
		probs = logits.Softmax(1).Data()
	})

	weights := make([]float64, len(probs))
	for i, v := range probs {
		weights[i] = float64(v)
	}
	return weights, nil
}
