// Package gradcheck compares autodiff gradients of a model's loss with
// central finite differences.
//
// For every checked weight w the numerical gradient is
//
//	(loss(w+eps) - loss(w-eps)) / 2eps
//
// and the reported error is |analytic - numerical| / max(|analytic|+|numerical|, Floor).
// The model stays in training mode so batch-norm layers use batch
// statistics; running statistics are restored afterwards.
package gradcheck

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/born-ml/makemore/internal/autodiff"
	"github.com/born-ml/makemore/internal/corpus"
	"github.com/born-ml/makemore/internal/model"
	"github.com/born-ml/makemore/internal/nn"
	"github.com/born-ml/makemore/internal/tensor"
)

// Defaults for Options.
const (
	DefaultEpsilon = 1e-2
	DefaultFloor   = 1e-2
)

// Options control the check.
type Options struct {
	Epsilon float64 // perturbation size
	Floor   float64 // lower bound of the relative-error denominator
	Samples int     // weights checked per parameter, 0 = all
}

func (o Options) withDefaults() Options {
	if o.Epsilon <= 0 {
		o.Epsilon = DefaultEpsilon
	}
	if o.Floor <= 0 {
		o.Floor = DefaultFloor
	}
	return o
}

// Result is the outcome for one parameter.
type Result struct {
	Name        string
	Checked     int
	MaxAbsError float64
	MaxRelError float64
}

// Report holds one Result per parameter, in model order.
type Report struct {
	Loss    float64
	Results []Result
}

// MaxRelError returns the worst relative error over all parameters.
func (r *Report) MaxRelError() float64 {
	worst := 0.0
	for _, res := range r.Results {
		worst = math.Max(worst, res.MaxRelError)
	}
	return worst
}

// Worst returns the parameter with the largest relative error.
func (r *Report) Worst() (Result, bool) {
	if len(r.Results) == 0 {
		return Result{}, false
	}
	sorted := append([]Result(nil), r.Results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MaxRelError > sorted[j].MaxRelError })
	return sorted[0], true
}

// Check runs the comparison on batch. rng picks the weights when
// opts.Samples limits them; it may be nil otherwise.
func Check[B autodiff.BackwardCapable](m model.Model[B], backend B, batch corpus.Batch, rng *rand.Rand, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	if batch.Size() == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	if len(batch.Contexts) != batch.Size()*m.ContextWidth() {
		return nil, fmt.Errorf("batch has %d context codes, want %d", len(batch.Contexts), batch.Size()*m.ContextWidth())
	}
	if opts.Samples > 0 && rng == nil {
		return nil, fmt.Errorf("sampling weights needs a random source")
	}

	x, err := tensor.FromSlice(batch.Contexts, tensor.Shape{batch.Size(), m.ContextWidth()}, backend)
	if err != nil {
		return nil, fmt.Errorf("batch contexts: %w", err)
	}
	y, err := tensor.FromSlice(batch.Targets, tensor.Shape{batch.Size()}, backend)
	if err != nil {
		return nil, fmt.Errorf("batch targets: %w", err)
	}

	saved := snapshot(m.Buffers())
	defer restore(m.Buffers(), saved)

	m.SetTraining(true)
	criterion := nn.NewCrossEntropyLoss[B]()

	tape := backend.GetTape()
	wasRecording := tape.IsRecording()
	tape.Clear()
	tape.StartRecording()
	loss := criterion.Forward(m.Forward(x), y)
	report := &Report{Loss: float64(loss.Item())}
	grads := autodiff.Backward(loss, backend)
	tape.Clear()
	if !wasRecording {
		tape.StopRecording()
	}

	lossAt := func() float64 {
		var v float32
		autodiff.NoGrad(backend, func() {
			v = criterion.Forward(m.Forward(x), y).Item()
		})
		return float64(v)
	}

	for _, p := range m.Parameters() {
		weights := p.Tensor().Raw().AsFloat32()
		var analytic []float32
		if g, ok := grads[p.Tensor().Raw()]; ok {
			analytic = g.AsFloat32()
		}

		res := Result{Name: p.Name()}
		for _, i := range indices(len(weights), opts.Samples, rng) {
			orig := weights[i]
			weights[i] = orig + float32(opts.Epsilon)
			plus := lossAt()
			weights[i] = orig - float32(opts.Epsilon)
			minus := lossAt()
			weights[i] = orig

			numerical := (plus - minus) / (2 * opts.Epsilon)
			a := 0.0
			if analytic != nil {
				a = float64(analytic[i])
			}
			diff := math.Abs(a - numerical)
			res.MaxAbsError = math.Max(res.MaxAbsError, diff)
			res.MaxRelError = math.Max(res.MaxRelError, diff/math.Max(math.Abs(a)+math.Abs(numerical), opts.Floor))
			res.Checked++
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// indices returns every index below n, or k distinct ones drawn from rng.
func indices(n, k int, rng *rand.Rand) []int {
	if k <= 0 || k >= n {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	picked := rng.Perm(n)[:k]
	sort.Ints(picked)
	return picked
}

func snapshot[B tensor.Backend](buffers []*nn.Parameter[B]) [][]float32 {
	out := make([][]float32, len(buffers))
	for i, b := range buffers {
		out[i] = append([]float32(nil), b.Tensor().Raw().AsFloat32()...)
	}
	return out
}

func restore[B tensor.Backend](buffers []*nn.Parameter[B], saved [][]float32) {
	for i, b := range buffers {
		copy(b.Tensor().Raw().AsFloat32(), saved[i])
	}
}
