package tensor

// Backend defines the operations every compute backend implements.
//
// Implementations:
//   - cpu.CPUBackend: pure Go
//   - autodiff.AutodiffBackend: decorator that records operations for backprop
//
// Backends panic on shape misuse; callers validate user input before it
// reaches a backend.
type Backend interface {
	// Element-wise binary operations with NumPy broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul multiplies 2-D matrices: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor) *RawTensor // 2-D only

	// Scalar operations.
	MulScalar(x *RawTensor, scalar float32) *RawTensor
	AddScalar(x *RawTensor, scalar float32) *RawTensor

	// Element-wise math.
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor

	// Softmax normalizes along dim.
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reductions.
	Sum(x *RawTensor) *RawTensor // scalar result
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Embedding looks up rows of weight [V, D] for int32 indices [...],
	// producing [..., D].
	Embedding(weight, indices *RawTensor) *RawTensor

	// OneHot encodes int32 indices [...] as float32 [..., classes].
	OneHot(indices *RawTensor, classes int) *RawTensor

	// CrossEntropy returns the mean negative log-likelihood of int32
	// targets [N] under float32 logits [N, C], as a scalar.
	CrossEntropy(logits, targets *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
