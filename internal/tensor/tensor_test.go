package tensor_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/makemore/internal/backend/cpu"
	"github.com/born-ml/makemore/internal/tensor"
)

func TestDataType(t *testing.T) {
	assert.Equal(t, 4, tensor.Float32.Size())
	assert.Equal(t, 4, tensor.Int32.Size())
	assert.Equal(t, "float32", tensor.Float32.String())
	assert.Equal(t, "int32", tensor.Int32.String())
}

func TestShape(t *testing.T) {
	s := tensor.Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, []int{12, 4, 1}, s.ComputeStrides())
	assert.Equal(t, 4, s.Last())
	assert.Equal(t, 1, tensor.Shape{}.NumElements())

	assert.NoError(t, s.Validate())
	assert.Error(t, tensor.Shape{2, 0}.Validate())

	c := s.Clone()
	c[0] = 9
	assert.Equal(t, 2, s[0], "Clone must not alias")
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    tensor.Shape
		want    tensor.Shape
		wantErr bool
	}{
		{"same", tensor.Shape{3, 5}, tensor.Shape{3, 5}, tensor.Shape{3, 5}, false},
		{"column", tensor.Shape{3, 1}, tensor.Shape{3, 5}, tensor.Shape{3, 5}, false},
		{"row", tensor.Shape{1, 5}, tensor.Shape{3, 5}, tensor.Shape{3, 5}, false},
		{"leading", tensor.Shape{5}, tensor.Shape{2, 5}, tensor.Shape{2, 5}, false},
		{"scalar", tensor.Shape{}, tensor.Shape{2, 2}, tensor.Shape{2, 2}, false},
		{"incompatible", tensor.Shape{3, 4}, tensor.Shape{3, 5}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tensor.BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromSlice(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	assert.Equal(t, float32(6), x.At(1, 2))

	x.Set(10, 0, 1)
	assert.Equal(t, []float32{1, 10, 3, 4, 5, 6}, x.Data())

	_, err = tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2, 2}, backend)
	assert.Error(t, err)

	assert.Panics(t, func() { x.At(2, 0) })
}

func TestCreation(t *testing.T) {
	backend := cpu.New()

	assert.Equal(t, []float32{1, 1, 1}, tensor.Ones[float32](tensor.Shape{3}, backend).Data())
	assert.Equal(t, []int32{0, 1, 2, 3}, tensor.Arange[int32](0, 4, backend).Data())
	assert.Equal(t, []float32{0.5, 0.5}, tensor.Full[float32](tensor.Shape{2}, 0.5, backend).Data())

	a := tensor.Randn(tensor.Shape{8}, rand.New(rand.NewSource(7)), backend)
	b := tensor.Randn(tensor.Shape{8}, rand.New(rand.NewSource(7)), backend)
	assert.Equal(t, a.Data(), b.Data(), "same seed must give the same draw")
}

func TestInferShape(t *testing.T) {
	assert.Equal(t, tensor.Shape{4, 6}, tensor.InferShape(tensor.Shape{-1, 6}, 24))
	assert.Equal(t, tensor.Shape{2, 3, 4}, tensor.InferShape(tensor.Shape{2, -1, 4}, 24))
	assert.Panics(t, func() { tensor.InferShape(tensor.Shape{-1, -1}, 24) })
	assert.Panics(t, func() { tensor.InferShape(tensor.Shape{-1, 5}, 24) })
}

func TestRawView(t *testing.T) {
	raw := tensor.MustRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	view := raw.View(tensor.Shape{3, 2})
	view.AsFloat32()[5] = 7
	assert.Equal(t, float32(7), raw.AsFloat32()[5], "views share storage")

	clone := raw.Clone()
	clone.AsFloat32()[5] = 1
	assert.Equal(t, float32(7), raw.AsFloat32()[5], "clones do not")

	assert.Panics(t, func() { raw.View(tensor.Shape{4}) })
}
