package tensor

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{3, 1}, backend)
//	b := tensor.Ones[float32](Shape{3, 5}, backend)
//	c := a.Add(b) // Shape: [3, 5]
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// MatMul multiplies 2-D matrices: (M, K) @ (K, N) -> (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Reshape returns a tensor with the same data and a new shape.
// One dimension may be -1 and is inferred from the others.
//
// Example:
//
//	x := emb.Reshape(-1, 60) // [N, 3, 20] -> [N, 60]
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	shape := InferShape(Shape(newShape), t.NumElements())
	return New[T, B](t.backend.Reshape(t.raw, shape), t.backend)
}

// Transpose swaps the two dimensions of a 2-D tensor.
func (t *Tensor[T, B]) Transpose() *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw), t.backend)
}

// MulScalar multiplies every element by s.
func (t *Tensor[T, B]) MulScalar(s float32) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, s), t.backend)
}

// AddScalar adds s to every element.
func (t *Tensor[T, B]) AddScalar(s float32) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, s), t.backend)
}

// Exp computes e^x element-wise.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return New[T, B](t.backend.Exp(t.raw), t.backend)
}

// Log computes the natural logarithm element-wise.
func (t *Tensor[T, B]) Log() *Tensor[T, B] {
	return New[T, B](t.backend.Log(t.raw), t.backend)
}

// Sqrt computes the square root element-wise.
func (t *Tensor[T, B]) Sqrt() *Tensor[T, B] {
	return New[T, B](t.backend.Sqrt(t.raw), t.backend)
}

// Tanh computes the hyperbolic tangent element-wise.
func (t *Tensor[T, B]) Tanh() *Tensor[T, B] {
	return New[T, B](t.backend.Tanh(t.raw), t.backend)
}

// Softmax normalizes along dim. Negative dims count from the end.
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Softmax(t.raw, NormalizeDim(dim, len(t.Shape()))), t.backend)
}

// Sum reduces all elements to a scalar.
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	return New[T, B](t.backend.Sum(t.raw), t.backend)
}

// SumDim sums along dim.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.SumDim(t.raw, NormalizeDim(dim, len(t.Shape())), keepDim), t.backend)
}

// MeanDim averages along dim.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.MeanDim(t.raw, NormalizeDim(dim, len(t.Shape())), keepDim), t.backend)
}

// Mean averages all elements to a scalar.
func (t *Tensor[T, B]) Mean() *Tensor[T, B] {
	return t.Sum().MulScalar(1 / float32(t.NumElements()))
}

// Embedding looks up rows of t (a [V, D] weight) for the given indices.
func (t *Tensor[T, B]) Embedding(indices *Tensor[int32, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Embedding(t.raw, indices.raw), t.backend)
}

// OneHot encodes int32 indices as float32 vectors of length classes.
func OneHot[B Backend](indices *Tensor[int32, B], classes int) *Tensor[float32, B] {
	b := indices.Backend()
	return New[float32, B](b.OneHot(indices.Raw(), classes), b)
}

// CrossEntropy returns the mean negative log-likelihood of targets under logits.
func CrossEntropy[B Backend](logits *Tensor[float32, B], targets *Tensor[int32, B]) *Tensor[float32, B] {
	b := logits.Backend()
	return New[float32, B](b.CrossEntropy(logits.Raw(), targets.Raw()), b)
}

// NormalizeDim maps a possibly negative dim into [0, rank).
func NormalizeDim(dim, rank int) int {
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		panic("dimension out of range")
	}
	return dim
}

// InferShape resolves a single -1 entry so that shape holds n elements.
func InferShape(shape Shape, n int) Shape {
	out := shape.Clone()
	unknown := -1
	known := 1
	for i, d := range out {
		if d == -1 {
			if unknown >= 0 {
				panic("reshape: only one dimension can be -1")
			}
			unknown = i
			continue
		}
		known *= d
	}
	if unknown >= 0 {
		if known == 0 || n%known != 0 {
			panic("reshape: cannot infer dimension")
		}
		out[unknown] = n / known
	}
	return out
}
