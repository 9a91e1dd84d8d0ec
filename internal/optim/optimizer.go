// Package optim updates model parameters from autodiff gradients.
//
// Optimizers write parameter storage directly, so a Step never appears on
// the autodiff tape. A training step looks like:
//
//	opt := optim.NewAdam(m.Parameters(), optim.AdamConfig{LR: 0.001}, backend)
//	backend.Tape().Clear()
//	loss := criterion.Forward(m.Forward(x), y)
//	opt.Step(autodiff.Backward(loss, backend))
//
// Learning-rate schedules are plain functions of the step count; see
// Schedule and Apply.
package optim

import (
	"github.com/born-ml/makemore/internal/nn"
	"github.com/born-ml/makemore/internal/tensor"
)

// Optimizer updates a fixed set of parameters.
type Optimizer interface {
	// Step applies one update from grads, which is keyed by the raw
	// tensor of each parameter. Parameters missing from grads are left
	// unchanged.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	ZeroGrad()
	GetLR() float32
	SetLR(lr float32)
}

// gradFor looks up the gradient of p, or nil when p did not take part in
// the forward pass.
func gradFor[B tensor.Backend](p *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) []float32 {
	if p == nil {
		return nil
	}
	g, ok := grads[p.Tensor().Raw()]
	if !ok || g == nil {
		return nil
	}
	return g.AsFloat32()
}
