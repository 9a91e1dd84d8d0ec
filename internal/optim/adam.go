package optim

import (
	"math"

	"github.com/born-ml/makemore/internal/nn"
	"github.com/born-ml/makemore/internal/tensor"
)

// AdamConfig configures Adam. Zero fields take the usual defaults:
// LR 0.001, Betas {0.9, 0.999}, Eps 1e-8.
type AdamConfig struct {
	LR    float32
	Betas [2]float32
	Eps   float32
}

// Adam keeps bias-corrected first and second moment estimates:
//
//	m = b1*m + (1-b1)*g
//	v = b2*v + (1-b2)*g*g
//	w = w - lr * (m/(1-b1^t)) / (sqrt(v/(1-b2^t)) + eps)
type Adam[B tensor.Backend] struct {
	params       []*nn.Parameter[B]
	lr           float32
	beta1, beta2 float32
	eps          float32
	t            int
	m, v         [][]float32 // per parameter, allocated on first use
}

// NewAdam creates an optimizer over params. The backend argument only pins B.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, _ B) *Adam[B] {
	a := &Adam[B]{
		params: params,
		lr:     orDefault(config.LR, 0.001),
		beta1:  orDefault(config.Betas[0], 0.9),
		beta2:  orDefault(config.Betas[1], 0.999),
		eps:    orDefault(config.Eps, 1e-8),
		m:      make([][]float32, len(params)),
		v:      make([][]float32, len(params)),
	}
	return a
}

func orDefault(v, def float32) float32 {
	if v == 0 {
		return def
	}
	return v
}

func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++
	c1 := float32(1 - math.Pow(float64(a.beta1), float64(a.t)))
	c2 := float32(1 - math.Pow(float64(a.beta2), float64(a.t)))

	for i, p := range a.params {
		g := gradFor(p, grads)
		if g == nil {
			continue
		}
		w := p.Tensor().Data()
		if a.m[i] == nil {
			a.m[i] = make([]float32, len(w))
			a.v[i] = make([]float32, len(w))
		}
		m, v := a.m[i], a.v[i]

		for j, gj := range g {
			m[j] = a.beta1*m[j] + (1-a.beta1)*gj
			v[j] = a.beta2*v[j] + (1-a.beta2)*gj*gj
			w[j] -= a.lr * (m[j] / c1) / (float32(math.Sqrt(float64(v[j]/c2))) + a.eps)
		}
	}
}

func (a *Adam[B]) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}

func (a *Adam[B]) GetLR() float32   { return a.lr }
func (a *Adam[B]) SetLR(lr float32) { a.lr = lr }

// Steps returns the number of updates taken so far.
func (a *Adam[B]) Steps() int { return a.t }
