package optim

import (
	"github.com/born-ml/makemore/internal/nn"
	"github.com/born-ml/makemore/internal/tensor"
)

// SGDConfig configures SGD. A zero LR means 0.01; Momentum must be in
// [0, 1) and 0 disables the velocity buffers.
type SGDConfig struct {
	LR       float32
	Momentum float32
}

// SGD is stochastic gradient descent with optional heavy-ball momentum:
//
//	v = momentum*v + g
//	w = w - lr*v
type SGD[B tensor.Backend] struct {
	params   []*nn.Parameter[B]
	lr       float32
	momentum float32
	velocity [][]float32 // per parameter, allocated on first use
}

// NewSGD creates an optimizer over params. The backend argument only pins
// B; updates touch storage directly.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, _ B) *SGD[B] {
	lr := config.LR
	if lr == 0 {
		lr = 0.01
	}
	return &SGD[B]{
		params:   params,
		lr:       lr,
		momentum: config.Momentum,
		velocity: make([][]float32, len(params)),
	}
}

func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for i, p := range s.params {
		g := gradFor(p, grads)
		if g == nil {
			continue
		}
		w := p.Tensor().Data()

		if s.momentum == 0 {
			for j, gj := range g {
				w[j] -= s.lr * gj
			}
			continue
		}

		if s.velocity[i] == nil {
			s.velocity[i] = make([]float32, len(w))
		}
		v := s.velocity[i]
		for j, gj := range g {
			v[j] = s.momentum*v[j] + gj
			w[j] -= s.lr * v[j]
		}
	}
}

func (s *SGD[B]) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}

func (s *SGD[B]) GetLR() float32   { return s.lr }
func (s *SGD[B]) SetLR(lr float32) { s.lr = lr }
