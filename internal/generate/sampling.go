// Package generate samples names from a trained character model.
//
// The model is opaque: anything that maps a context window to 27
// non-negative weights is a Predictor. The generation loop starts from an
// all-boundary context, draws one symbol per step, and stops when the
// boundary symbol is drawn or the step bound is reached.
package generate

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/born-ml/makemore/internal/vocab"
)

// InvalidDistributionError is returned when a weight vector cannot be
// sampled from.
type InvalidDistributionError struct {
	Index  int     // Offending index, -1 when the whole vector is at fault
	Weight float64 // Offending weight or sum
	Reason string
}

// Error implements the error interface.
func (e *InvalidDistributionError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid distribution: weight %d = %g: %s", e.Index, e.Weight, e.Reason)
	}
	return fmt.Sprintf("invalid distribution: %s (%g)", e.Reason, e.Weight)
}

// Categorical draws an index from weights with probability proportional to
// its weight.
//
// Each weight is divided by the largest one and by the scaled sum, the
// results are accumulated in index order, and r is drawn uniformly from
// [0, 1). The result is the smallest index whose cumulative
// value exceeds r. If rounding leaves r above every cumulative value the
// result is 0, the boundary symbol.
//
// weights must hold vocab.Size entries, each finite and non-negative, with a
// positive sum.
func Categorical(weights []float64, rng *rand.Rand) (int, error) {
	scale, sum, err := validate(weights)
	if err != nil {
		return 0, err
	}

	r := rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w / scale / sum
		if acc > r {
			return i, nil
		}
	}
	return 0, nil
}

// validate checks weights and returns the largest weight and the sum of
// weights divided by it. Scaling first keeps the sum finite for any vector
// of finite weights.
func validate(weights []float64) (scale, sum float64, err error) {
	if len(weights) != vocab.Size {
		return 0, 0, &InvalidDistributionError{
			Index:  -1,
			Weight: float64(len(weights)),
			Reason: fmt.Sprintf("want %d weights", vocab.Size),
		}
	}

	for i, w := range weights {
		switch {
		case math.IsNaN(w):
			return 0, 0, &InvalidDistributionError{Index: i, Weight: w, Reason: "not a number"}
		case w < 0:
			return 0, 0, &InvalidDistributionError{Index: i, Weight: w, Reason: "negative"}
		case math.IsInf(w, 1):
			return 0, 0, &InvalidDistributionError{Index: i, Weight: w, Reason: "infinite"}
		}
		scale = math.Max(scale, w)
	}
	if scale == 0 {
		return 0, 0, &InvalidDistributionError{Index: -1, Weight: 0, Reason: "sum must be positive"}
	}

	for _, w := range weights {
		sum += w / scale
	}
	return scale, sum, nil
}

// SamplingConfig configures how a Sampler picks a symbol from the weights.
type SamplingConfig struct {
	// Greedy always picks the heaviest symbol. Ties go to the lowest index.
	Greedy bool

	// TopK limits sampling to the K heaviest symbols. 0 = disabled.
	// Ties at the cut go to the lowest indices, so exactly K survive.
	TopK int
}

// DefaultSamplingConfig samples from the full distribution.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{}
}

// Sampler draws symbols from weight vectors with a fixed random source.
// A Sampler is not safe for concurrent use.
type Sampler struct {
	config SamplingConfig
	rng    *rand.Rand
}

// NewSampler creates a sampler drawing from rng.
func NewSampler(config SamplingConfig, rng *rand.Rand) *Sampler {
	return &Sampler{
		config: config,
		rng:    rng,
	}
}

// Sample returns the next symbol code. weights is not modified.
func (s *Sampler) Sample(weights []float64) (int32, error) {
	if _, _, err := validate(weights); err != nil {
		return 0, err
	}

	if s.config.Greedy {
		return int32(argmax(weights)), nil //nolint:gosec // bounded by vocab.Size
	}

	if s.config.TopK > 0 && s.config.TopK < len(weights) {
		weights = topK(weights, s.config.TopK)
	}

	idx, err := Categorical(weights, s.rng)
	if err != nil {
		return 0, err
	}
	return int32(idx), nil //nolint:gosec // bounded by vocab.Size
}

func argmax(weights []float64) int {
	best := 0
	for i, w := range weights[1:] {
		if w > weights[best] {
			best = i + 1
		}
	}
	return best
}

// topK returns a copy of weights keeping only the k heaviest entries.
// Equal weights are ranked by index.
func topK(weights []float64, k int) []float64 {
	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return weights[order[a]] > weights[order[b]]
	})

	out := make([]float64, len(weights))
	for _, i := range order[:k] {
		out[i] = weights[i]
	}
	return out
}
