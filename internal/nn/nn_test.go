package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/makemore/internal/autodiff"
	"github.com/born-ml/makemore/internal/backend/cpu"
	"github.com/born-ml/makemore/internal/nn"
	"github.com/born-ml/makemore/internal/tensor"
)

type cpuBackend = *cpu.CPUBackend

func seeded() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestLinear_Forward(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(3, 2, seeded(), backend)

	copy(layer.Weight().Tensor().Data(), []float32{1, 0, 0, 0, 1, 1})
	copy(layer.Bias().Tensor().Data(), []float32{0.5, -0.5})

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)

	out := layer.Forward(x)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{1.5, 4.5, 4.5, 10.5}, out.Data())
	assert.Len(t, layer.Parameters(), 2)
}

func TestLinear_Forward3D(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(4, 5, seeded(), backend, nn.WithoutBias())
	assert.Len(t, layer.Parameters(), 1)
	assert.Nil(t, layer.Bias())

	x := tensor.Randn(tensor.Shape{2, 3, 4}, seeded(), backend)
	out := layer.Forward(x)
	assert.Equal(t, tensor.Shape{2, 3, 5}, out.Shape())

	// Row (1, 2) must equal the 2D result for the same row.
	row, err := tensor.FromSlice(x.Data()[(1*3+2)*4:(1*3+3)*4], tensor.Shape{1, 4}, backend)
	require.NoError(t, err)
	assert.InDeltaSlice(t, layer.Forward(row).Data(), out.Data()[(1*3+2)*5:(1*3+3)*5], 1e-6)

	assert.Panics(t, func() { layer.Forward(tensor.Zeros[float32](tensor.Shape{2, 3}, backend)) })
}

func TestLinear_Init(t *testing.T) {
	backend := cpu.New()

	a := nn.NewLinear(10, 10, rand.New(rand.NewSource(1)), backend)
	b := nn.NewLinear(10, 10, rand.New(rand.NewSource(1)), backend)
	assert.Equal(t, a.Weight().Tensor().Data(), b.Weight().Tensor().Data(), "same seed, same weights")

	bound := float32(math.Sqrt(6.0 / 20))
	for _, w := range a.Weight().Tensor().Data() {
		assert.LessOrEqual(t, float32(math.Abs(float64(w))), bound)
	}

	scaled := nn.NewLinear(10, 10, rand.New(rand.NewSource(1)), backend, nn.WithWeightScale(0.1))
	assert.InDelta(t, a.Weight().Tensor().Data()[3]*0.1, scaled.Weight().Tensor().Data()[3], 1e-7)

	k := nn.NewLinear(400, 200, seeded(), backend, nn.WithKaimingNormal(5.0/3))
	var sumSq float64
	data := k.Weight().Tensor().Data()
	for _, w := range data {
		sumSq += float64(w) * float64(w)
	}
	std := math.Sqrt(sumSq / float64(len(data)))
	assert.InDelta(t, (5.0/3)/math.Sqrt(400), std, 0.005)
}

func TestEmbedding(t *testing.T) {
	backend := cpu.New()
	weight, err := tensor.FromSlice([]float32{0, 0, 1, 1, 2, 2}, tensor.Shape{3, 2}, backend)
	require.NoError(t, err)
	emb := nn.NewEmbeddingWithWeight(weight)

	idx, err := tensor.FromSlice([]int32{2, 1, 0, 0}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	out := emb.Forward(idx)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{2, 2, 1, 1, 0, 0, 0, 0}, out.Data())

	random := nn.NewEmbedding(27, 10, seeded(), backend)
	assert.Equal(t, 27, random.NumEmbed)
	assert.Equal(t, 10, random.EmbedDim)
}

func TestBatchNorm1D_TrainingNormalizes(t *testing.T) {
	backend := cpu.New()
	bn := nn.NewBatchNorm1D(3, backend)

	x := tensor.Randn(tensor.Shape{64, 3}, seeded(), backend).MulScalar(4).AddScalar(2)
	out := bn.Forward(x)
	require.Equal(t, tensor.Shape{64, 3}, out.Shape())

	mean := out.MeanDim(0, false).Data()
	centered := out.Sub(out.MeanDim(0, true))
	variance := centered.Mul(centered).MeanDim(0, false).Data()
	for c := 0; c < 3; c++ {
		assert.InDelta(t, 0, mean[c], 1e-4)
		assert.InDelta(t, 1, variance[c], 1e-3)
	}

	// One step of momentum 0.1 from (0, 1) toward the batch statistics.
	batchMean := x.MeanDim(0, false).Data()
	for c, rm := range bn.RunningMean().Data() {
		assert.InDelta(t, 0.1*batchMean[c], rm, 1e-5)
	}
	assert.Greater(t, bn.RunningVar().Data()[0], float32(1))
}

func TestBatchNorm1D_EvalUsesRunningStats(t *testing.T) {
	backend := cpu.New()
	bn := nn.NewBatchNorm1D(2, backend)
	copy(bn.RunningMean().Data(), []float32{1, -1})
	copy(bn.RunningVar().Data(), []float32{4, 1})
	bn.SetTraining(false)
	assert.False(t, bn.Training())

	x, err := tensor.FromSlice([]float32{3, 0}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)

	out := bn.Forward(x).Data()
	assert.InDelta(t, 1, out[0], 1e-4)
	assert.InDelta(t, 1, out[1], 1e-4)

	// Evaluation must not move the running statistics.
	assert.Equal(t, []float32{1, -1}, bn.RunningMean().Data())
}

func TestBatchNorm1D_3DInput(t *testing.T) {
	backend := cpu.New()
	bn := nn.NewBatchNorm1D(4, backend)

	x := tensor.Randn(tensor.Shape{8, 2, 4}, seeded(), backend)
	out := bn.Forward(x)
	assert.Equal(t, tensor.Shape{8, 2, 4}, out.Shape())

	mean := out.Reshape(-1, 4).MeanDim(0, false).Data()
	for _, m := range mean {
		assert.InDelta(t, 0, m, 1e-4)
	}
	assert.Len(t, bn.Parameters(), 2)
	assert.Len(t, bn.Buffers(), 2)
}

func TestBatchNorm1D_Gradients(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	bn := nn.NewBatchNorm1D(2, backend)
	x := tensor.Randn(tensor.Shape{6, 2}, seeded(), backend)

	loss := bn.Forward(x).Sum()
	grads := autodiff.Backward(loss, backend)

	// sum(gamma * xhat + beta): d/dbeta = N, d/dgamma = sum(xhat) = 0.
	assert.InDeltaSlice(t, []float32{6, 6}, grads[bn.Parameters()[1].Tensor().Raw()].AsFloat32(), 1e-5)
	assert.InDeltaSlice(t, []float32{0, 0}, grads[bn.Parameters()[0].Tensor().Raw()].AsFloat32(), 1e-4)
	// A shift of every row leaves the output unchanged, so the input gradient vanishes.
	assert.InDeltaSlice(t, make([]float32, 12), grads[x.Raw()].AsFloat32(), 1e-4)
}

func TestFlatten(t *testing.T) {
	backend := cpu.New()
	x := tensor.Zeros[float32](tensor.Shape{4, 3, 20}, backend)

	assert.Equal(t, tensor.Shape{4, 60}, nn.NewFlatten[cpuBackend]().Forward(x).Shape())

	fc := nn.NewFlattenConsecutive[cpuBackend](2)
	y := tensor.Zeros[float32](tensor.Shape{4, 8, 10}, backend)
	assert.Equal(t, tensor.Shape{4, 4, 20}, fc.Forward(y).Shape())

	last := tensor.Zeros[float32](tensor.Shape{4, 2, 10}, backend)
	assert.Equal(t, tensor.Shape{4, 20}, fc.Forward(last).Shape(), "length-1 time dim is dropped")

	assert.Panics(t, func() { fc.Forward(tensor.Zeros[float32](tensor.Shape{4, 3, 10}, backend)) })
}

func TestFlattenConsecutive_GroupsNeighbors(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{1, 4, 2}, backend)
	require.NoError(t, err)

	out := nn.NewFlattenConsecutive[cpuBackend](2).Forward(x)
	assert.Equal(t, tensor.Shape{1, 2, 4}, out.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4}, out.Data()[:4], "steps 0 and 1 are concatenated")
}

func TestSequential(t *testing.T) {
	backend := cpu.New()
	rng := seeded()

	bn := nn.NewBatchNorm1D(8, backend)
	seq := nn.NewSequential[cpuBackend](
		nn.NewLinear(4, 8, rng, backend, nn.WithoutBias()),
		bn,
		nn.NewTanh[cpuBackend](),
	)
	seq.Add(nn.NewLinear(8, 3, rng, backend))

	assert.Equal(t, 4, seq.Len())
	assert.Len(t, seq.Parameters(), 1+2+2)
	assert.Len(t, seq.Buffers(), 2)
	assert.Equal(t, 4*8+8+8+8*3+3, nn.NumParameters(seq.Parameters()))

	out := seq.Forward(tensor.Randn(tensor.Shape{5, 4}, rng, backend))
	assert.Equal(t, tensor.Shape{5, 3}, out.Shape())

	nn.SetTraining[cpuBackend](seq, false)
	assert.False(t, bn.Training())

	assert.Panics(t, func() { seq.Module(4) })
}

func TestCrossEntropyLoss(t *testing.T) {
	backend := cpu.New()
	criterion := nn.NewCrossEntropyLoss[cpuBackend]()

	logits := tensor.Zeros[float32](tensor.Shape{4, 27}, backend)
	targets, err := tensor.FromSlice([]int32{0, 1, 2, 3}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	assert.InDelta(t, math.Log(27), criterion.Forward(logits, targets).Item(), 1e-5)
	assert.Panics(t, func() { criterion.Forward(logits, tensor.Zeros[int32](tensor.Shape{3}, backend)) })
}

func TestStateDict_RoundTrip(t *testing.T) {
	backend := cpu.New()

	src := nn.NewLinear(3, 2, rand.New(rand.NewSource(1)), backend)
	nn.PrefixParameters("out", src.Parameters())
	assert.Equal(t, "out.weight", src.Weight().Name())

	state, err := nn.StateDict(src.Parameters())
	require.NoError(t, err)
	assert.Len(t, state, 2)

	dst := nn.NewLinear(3, 2, rand.New(rand.NewSource(2)), backend)
	nn.PrefixParameters("out", dst.Parameters())
	require.NoError(t, nn.LoadStateDict(dst.Parameters(), state))
	assert.Equal(t, src.Weight().Tensor().Data(), dst.Weight().Tensor().Data())

	other := nn.NewLinear(3, 4, seeded(), backend)
	nn.PrefixParameters("out", other.Parameters())
	assert.ErrorContains(t, nn.LoadStateDict(other.Parameters(), state), "shape mismatch")

	delete(state, "out.bias")
	assert.ErrorContains(t, nn.LoadStateDict(dst.Parameters(), state), "missing out.bias")

	_, err = nn.StateDict([]*nn.Parameter[cpuBackend]{src.Weight(), src.Weight()})
	assert.Error(t, err)
}
