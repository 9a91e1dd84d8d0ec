package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/makemore/internal/parallel"
	"github.com/born-ml/makemore/internal/tensor"
)

// CrossEntropy computes mean(-log softmax(logits)[target]) over the batch.
//
// logits: [N, C] float32
// targets: [N] int32 class indices
// Output: scalar
//
// Uses the log-sum-exp trick so large logits do not overflow.
func (cpu *CPUBackend) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	lShape := logits.Shape()
	if len(lShape) != 2 {
		panic(fmt.Sprintf("crossentropy: logits must be 2D [N, C], got %v", lShape))
	}
	if targets.DType() != tensor.Int32 {
		panic(fmt.Sprintf("crossentropy: targets must be int32, got %s", targets.DType()))
	}
	n, c := lShape[0], lShape[1]
	if targets.NumElements() != n {
		panic(fmt.Sprintf("crossentropy: %d targets for %d rows", targets.NumElements(), n))
	}
	requireFloat32("crossentropy", logits)

	// Validate before fanning out: a panic inside a worker cannot be recovered by the caller.
	for _, t := range targets.AsInt32() {
		if t < 0 || int(t) >= c {
			panic(fmt.Sprintf("crossentropy: target %d out of range [0, %d)", t, c))
		}
	}

	losses := make([]float64, n)
	crossEntropyRows(losses, logits.AsFloat32(), targets.AsInt32(), c, cpu.par)

	var total float64
	for _, l := range losses {
		total += l
	}

	result := cpu.newFloat32("crossentropy", tensor.Shape{})
	result.AsFloat32()[0] = float32(total / float64(n))
	return result
}

func crossEntropyRows(losses []float64, logits []float32, targets []int32, c int, cfg parallel.Config) {
	parallel.For(len(losses), func(i int) {
		target := int(targets[i])
		row := logits[i*c : (i+1)*c]
		maxVal := row[0]
		for _, v := range row[1:] {
			maxVal = max(maxVal, v)
		}

		var sum float64
		for _, v := range row {
			sum += math.Exp(float64(v - maxVal))
		}

		losses[i] = math.Log(sum) + float64(maxVal) - float64(row[target])
	}, cfg)
}
