package autodiff

import (
	"github.com/born-ml/makemore/internal/autodiff/ops"
	"github.com/born-ml/makemore/internal/tensor"
)

// GradientTape is the list of operations executed while recording, in
// execution order. Backward replays it in reverse.
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	loss := model.Forward(x) // ops are appended by AutodiffBackend
//	grads := tape.Backward(loss.Raw(), ones, backend)
type GradientTape struct {
	ops       []ops.Operation
	recording bool
}

// NewGradientTape returns an empty, stopped tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{ops: make([]ops.Operation, 0, 64)}
}

func (t *GradientTape) StartRecording()   { t.recording = true }
func (t *GradientTape) StopRecording()    { t.recording = false }
func (t *GradientTape) IsRecording() bool { return t.recording }

// Record appends op while recording; otherwise it is dropped.
func (t *GradientTape) Record(op ops.Operation) {
	if !t.recording {
		return
	}
	t.ops = append(t.ops, op)
}

// Clear drops every recorded op but keeps the recording state, so a
// training loop can reuse one tape per step.
func (t *GradientTape) Clear() {
	clear(t.ops)
	t.ops = t.ops[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.ops)
}

// Backward returns d(output)/d(x) for every tensor x on a recorded path to
// output, keyed by raw tensor. output is seeded with outputGrad. A tensor
// that feeds several ops receives the sum of their contributions. Ops that
// do not lead to output get nothing.
//
// Nothing is recorded while the pass runs.
func (t *GradientTape) Backward(output, outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := map[*tensor.RawTensor]*tensor.RawTensor{output: outputGrad}

	prev := t.recording
	t.recording = false
	defer func() { t.recording = prev }()

	for i := len(t.ops) - 1; i >= 0; i-- {
		op := t.ops[i]
		upstream, ok := grads[op.Output()]
		if !ok {
			continue
		}

		local := op.Backward(upstream, backend)
		for j, in := range op.Inputs() {
			if j >= len(local) || local[j] == nil {
				continue
			}
			if acc, seen := grads[in]; seen {
				grads[in] = backend.Add(acc, local[j])
			} else {
				grads[in] = local[j]
			}
		}
	}
	return grads
}
