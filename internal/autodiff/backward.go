package autodiff

import (
	"fmt"

	"github.com/born-ml/makemore/internal/tensor"
)

// BackwardCapable is an interface for backends that support backward pass.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable interface).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients of t using the backend's tape.
//
// The output gradient is seeded with ones of t's shape, so for a scalar loss
// the result holds dLoss/dX keyed by each X's RawTensor.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x := tensor.Ones[float32](tensor.Shape{2}, backend)
//	y := x.Mul(x).Sum()
//	gradients := autodiff.Backward(y, backend)
//	grad := gradients[x.Raw()] // [2, 2]
func Backward[B BackwardCapable](t *tensor.Tensor[float32, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()

	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}

	outputGrad, err := tensor.NewRaw(t.Shape(), tensor.Float32, backend.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create output gradient: %v", err))
	}
	outputGrad.Fill(1)

	return tape.Backward(t.Raw(), outputGrad, backend)
}

// NoGrad runs fn with recording paused when b is an autodiff backend, and
// restores the previous recording state afterwards. Other backends just run
// fn.
func NoGrad(b tensor.Backend, fn func()) {
	bc, ok := b.(BackwardCapable)
	if !ok {
		fn()
		return
	}

	tape := bc.GetTape()
	if !tape.IsRecording() {
		fn()
		return
	}
	tape.StopRecording()
	defer tape.StartRecording()
	fn()
}
