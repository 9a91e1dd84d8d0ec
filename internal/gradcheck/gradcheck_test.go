package gradcheck

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/makemore/internal/autodiff"
	"github.com/born-ml/makemore/internal/backend/cpu"
	"github.com/born-ml/makemore/internal/corpus"
	"github.com/born-ml/makemore/internal/model"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func batchFor(t *testing.T, width, n int) corpus.Batch {
	t.Helper()
	ds, err := corpus.Encode([]string{"emma", "olivia", "ava"}, width)
	require.NoError(t, err)
	return ds.Batches(n)[0]
}

func build(t *testing.T, cfg model.Config) (model.Model[adBackend], adBackend) {
	t.Helper()
	backend := autodiff.New(cpu.New())
	m, err := model.New(cfg, backend, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	return m, backend
}

func TestCheck_Models(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.Config
	}{
		{"bigram", model.Config{Kind: model.KindBigram}},
		{"mlp", model.Config{Kind: model.KindMLP, EmbedDim: 3, Hidden: 6}},
		{"mlp_batchnorm", model.Config{Kind: model.KindMLPBatchNorm, EmbedDim: 3, Hidden: 6}},
		{"wavenet", model.Config{Kind: model.KindWaveNet, ContextWidth: 4, EmbedDim: 3, Hidden: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, backend := build(t, tt.cfg)
			report, err := Check(m, backend, batchFor(t, m.ContextWidth(), 8), nil, Options{})
			require.NoError(t, err)

			require.Len(t, report.Results, len(m.Parameters()))
			for i, res := range report.Results {
				assert.Equal(t, m.Parameters()[i].Name(), res.Name)
				assert.Equal(t, m.Parameters()[i].Tensor().NumElements(), res.Checked)
				assert.Less(t, res.MaxRelError, 0.05, res.Name)
			}
			assert.Greater(t, report.Loss, 0.0)
			assert.Less(t, report.MaxRelError(), 0.05)

			assert.False(t, backend.Tape().IsRecording())
			assert.Equal(t, 0, backend.Tape().NumOps())
		})
	}
}

func TestCheck_Samples(t *testing.T) {
	m, backend := build(t, model.Config{Kind: model.KindMLP, EmbedDim: 3, Hidden: 6})
	report, err := Check(m, backend, batchFor(t, 3, 4), rand.New(rand.NewSource(1)), Options{Samples: 5})
	require.NoError(t, err)

	for i, res := range report.Results {
		want := 5
		if n := m.Parameters()[i].Tensor().NumElements(); n < want {
			want = n
		}
		assert.Equal(t, want, res.Checked, res.Name)
	}

	worst, ok := report.Worst()
	require.True(t, ok)
	assert.Equal(t, report.MaxRelError(), worst.MaxRelError)
}

func TestCheck_LeavesModelUnchanged(t *testing.T) {
	m, backend := build(t, model.Config{Kind: model.KindMLPBatchNorm, EmbedDim: 3, Hidden: 6})

	before, err := model.StateDict(m)
	require.NoError(t, err)
	want := make(map[string][]float32, len(before))
	for name, raw := range before {
		want[name] = append([]float32(nil), raw.AsFloat32()...)
	}

	_, err = Check(m, backend, batchFor(t, 3, 8), nil, Options{})
	require.NoError(t, err)

	after, err := model.StateDict(m)
	require.NoError(t, err)
	for name, raw := range after {
		assert.Equal(t, want[name], raw.AsFloat32(), name)
	}
}

func TestCheck_Errors(t *testing.T) {
	m, backend := build(t, model.Config{Kind: model.KindMLP, EmbedDim: 3, Hidden: 6})

	_, err := Check(m, backend, corpus.Batch{}, nil, Options{})
	assert.Error(t, err)

	_, err = Check(m, backend, batchFor(t, 1, 4), nil, Options{})
	assert.Error(t, err, "width mismatch")

	_, err = Check(m, backend, batchFor(t, 3, 4), nil, Options{Samples: 2})
	assert.Error(t, err, "sampling without rng")

	_, ok := (&Report{}).Worst()
	assert.False(t, ok)
}
