package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/makemore/internal/parallel"
	"github.com/born-ml/makemore/internal/tensor"
)

func raw(t *testing.T, data []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(tensor.Shape(shape), tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsFloat32(), data)
	return r
}

func rawInt(t *testing.T, data []int32, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(tensor.Shape(shape), tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsInt32(), data)
	return r
}

func TestCPUBackend_Metadata(t *testing.T) {
	b := New()
	assert.Equal(t, "CPU", b.Name())
	assert.Equal(t, tensor.CPU, b.Device())
	assert.GreaterOrEqual(t, b.Parallel().NumWorkers, 1)
}

func TestCPUBackend_ElementwiseBroadcast(t *testing.T) {
	b := New()

	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	row := raw(t, []float32{10, 20, 30}, 1, 3)
	col := raw(t, []float32{100, 200}, 2, 1)

	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, b.Add(a, row).AsFloat32())
	assert.Equal(t, []float32{99, 98, 97, 196, 195, 194}, b.Sub(col, a).AsFloat32())
	assert.Equal(t, []float32{100, 200, 300, 800, 1000, 1200}, b.Mul(a, col).AsFloat32())
	assert.Equal(t, tensor.Shape{2, 3}, b.Div(a, row).Shape())
	assert.InDelta(t, 0.1, b.Div(a, row).AsFloat32()[0], 1e-6)

	assert.Panics(t, func() { b.Add(a, raw(t, []float32{1, 2}, 2)) })
}

func TestCPUBackend_MatMul(t *testing.T) {
	for _, cfg := range []parallel.Config{parallel.Sequential(), {Enabled: true, NumWorkers: 3, MinChunkSize: 1}} {
		b := NewWithConfig(cfg)

		a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
		m := raw(t, []float32{7, 8, 9, 10, 11, 12}, 3, 2)

		out := b.MatMul(a, m)
		assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
		assert.Equal(t, []float32{58, 64, 139, 154}, out.AsFloat32())
	}

	assert.Panics(t, func() {
		New().MatMul(raw(t, make([]float32, 6), 2, 3), raw(t, make([]float32, 4), 2, 2))
	})
}

func TestCPUBackend_ShapeOps(t *testing.T) {
	b := New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	tr := b.Transpose(a)
	assert.Equal(t, tensor.Shape{3, 2}, tr.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, tr.AsFloat32())

	r := b.Reshape(a, tensor.Shape{3, 2})
	r.AsFloat32()[0] = 42
	assert.Equal(t, float32(1), a.AsFloat32()[0], "reshape must not alias its input")
	assert.Panics(t, func() { b.Reshape(a, tensor.Shape{4}) })
}

func TestCPUBackend_UnaryAndScalar(t *testing.T) {
	b := New()
	x := raw(t, []float32{0, 1, 4}, 3)

	assert.Equal(t, []float32{0, 2, 8}, b.MulScalar(x, 2).AsFloat32())
	assert.Equal(t, []float32{1, 2, 5}, b.AddScalar(x, 1).AsFloat32())
	assert.InDeltaSlice(t, []float32{1, float32(math.E), float32(math.Exp(4))}, b.Exp(x).AsFloat32(), 1e-3)
	assert.Equal(t, []float32{0, 1, 2}, b.Sqrt(x).AsFloat32())
	assert.True(t, math.IsInf(float64(b.Log(x).AsFloat32()[0]), -1))
	assert.InDelta(t, math.Tanh(1), b.Tanh(x).AsFloat32()[1], 1e-6)
}

func TestCPUBackend_Softmax(t *testing.T) {
	b := New()
	x := raw(t, []float32{1, 2, 3, 1000, 1000, 1000}, 2, 3)

	out := b.Softmax(x, 1).AsFloat32()
	for row := 0; row < 2; row++ {
		var sum float32
		for _, v := range out[row*3 : row*3+3] {
			sum += v
		}
		assert.InDelta(t, 1, sum, 1e-5)
	}
	assert.InDelta(t, 1.0/3, out[4], 1e-6, "large logits must not overflow")
	assert.Greater(t, out[2], out[1])

	// Along dim 0 each column sums to one.
	col := b.Softmax(raw(t, []float32{0, 5, 0, 5}, 2, 2), 0).AsFloat32()
	assert.InDelta(t, 0.5, col[0], 1e-6)
	assert.InDelta(t, 0.5, col[2], 1e-6)
}

func TestCPUBackend_Reductions(t *testing.T) {
	b := New()
	x := raw(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	assert.Equal(t, tensor.Shape{}, b.Sum(x).Shape())
	assert.Equal(t, float32(21), b.Sum(x).AsFloat32()[0])

	assert.Equal(t, []float32{5, 7, 9}, b.SumDim(x, 0, false).AsFloat32())
	assert.Equal(t, tensor.Shape{2, 1}, b.SumDim(x, -1, true).Shape())
	assert.Equal(t, []float32{6, 15}, b.SumDim(x, 1, true).AsFloat32())
	assert.Equal(t, []float32{2, 5}, b.MeanDim(x, 1, false).AsFloat32())
	assert.Equal(t, []float32{2.5, 3.5, 4.5}, b.MeanDim(x, 0, true).AsFloat32())

	assert.Panics(t, func() { b.SumDim(x, 2, false) })
}

func TestCPUBackend_Embedding(t *testing.T) {
	b := New()
	weight := raw(t, []float32{0, 0, 1, 1, 2, 2}, 3, 2)
	idx := rawInt(t, []int32{2, 0, 1, 2}, 2, 2)

	out := b.Embedding(weight, idx)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{2, 2, 0, 0, 1, 1, 2, 2}, out.AsFloat32())

	assert.Panics(t, func() { b.Embedding(weight, rawInt(t, []int32{3}, 1)) })
}

func TestCPUBackend_OneHot(t *testing.T) {
	b := New()
	out := b.OneHot(rawInt(t, []int32{0, 2}, 2), 3)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{1, 0, 0, 0, 0, 1}, out.AsFloat32())

	assert.Panics(t, func() { b.OneHot(rawInt(t, []int32{-1}, 1), 3) })
}

func TestCPUBackend_CrossEntropy(t *testing.T) {
	b := New()

	// Uniform logits give log(C).
	uniform := b.CrossEntropy(raw(t, make([]float32, 2*27), 2, 27), rawInt(t, []int32{0, 26}, 2))
	assert.InDelta(t, math.Log(27), uniform.AsFloat32()[0], 1e-5)

	logits := raw(t, []float32{2, 1, 0.1}, 1, 3)
	want := -math.Log(math.Exp(2) / (math.Exp(2) + math.Exp(1) + math.Exp(0.1)))
	assert.InDelta(t, want, b.CrossEntropy(logits, rawInt(t, []int32{0}, 1)).AsFloat32()[0], 1e-5)

	assert.Panics(t, func() { b.CrossEntropy(logits, rawInt(t, []int32{3}, 1)) })
}
