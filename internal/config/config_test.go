package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/makemore/internal/generate"
	"github.com/born-ml/makemore/internal/model"
	"github.com/born-ml/makemore/internal/train"
)

func TestDefault(t *testing.T) {
	for _, kind := range model.Kinds {
		t.Run(string(kind), func(t *testing.T) {
			cfg, err := Default(kind)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			assert.Equal(t, kind, cfg.Model.Kind)
			assert.Equal(t, DefaultSeed, cfg.Seed)
			assert.Equal(t, generate.DefaultMaxLength, cfg.Sample.MaxLength)
		})
	}

	bigram, err := Default(model.KindBigram)
	require.NoError(t, err)
	assert.Equal(t, 0, bigram.Train.BatchSize)
	assert.Equal(t, float32(0.1), bigram.Train.LearningRate)

	_, err = Default("rnn")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"split_train", func(c *Config) { c.Split.Train = 0 }},
		{"split_sum", func(c *Config) { c.Split = Split{Train: 0.9, Dev: 0.2} }},
		{"model", func(c *Config) { c.Model.Hidden = -1 }},
		{"train", func(c *Config) { c.Train.Epochs = 0 }},
		{"num", func(c *Config) { c.Sample.Num = -1 }},
		{"max_length", func(c *Config) { c.Sample.MaxLength = -1 }},
		{"temperature", func(c *Config) { c.Sample.Temperature = 0 }},
		{"top_k", func(c *Config) { c.Sample.TopK = 28 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default(model.KindMLP)
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
corpus: names.txt
seed: 42
model:
  kind: wavenet
  hidden: 64
train:
  epochs: 3
  optimizer: sgd
sample:
  num: 5
  top_k: 3
`))
	require.NoError(t, err)

	assert.Equal(t, "names.txt", cfg.Corpus)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, model.Config{Kind: model.KindWaveNet, ContextWidth: 8, EmbedDim: 10, Hidden: 64}, cfg.Model)
	assert.Equal(t, 3, cfg.Train.Epochs)
	assert.Equal(t, train.OptimizerSGD, cfg.Train.Optimizer)
	assert.Equal(t, 256, cfg.Train.BatchSize, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.Sample.Num)
	assert.Equal(t, generate.SamplingConfig{TopK: 3}, cfg.Sample.SamplingConfig())
	assert.Equal(t, Split{Train: 0.8, Dev: 0.1}, cfg.Split)
}

func TestParse_KindDefaults(t *testing.T) {
	cfg, err := Parse([]byte("model:\n  kind: Bigram\n"))
	require.NoError(t, err)
	assert.Equal(t, model.KindBigram, cfg.Model.Kind)
	assert.Equal(t, 1, cfg.Model.ContextWidth)
	assert.Equal(t, 100, cfg.Train.Epochs)

	cfg, err = Parse([]byte("seed: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, model.KindMLP, cfg.Model.Kind)
}

func TestParse_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"syntax":     "model: [",
		"kind":       "model:\n  kind: rnn\n",
		"validation": "model:\n  kind: wavenet\n  context_width: 3\n",
		"type":       "seed: many\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestManager_LoadConfig(t *testing.T) {
	logger, _ := test.NewNullLogger()

	path := filepath.Join(t.TempDir(), "makemore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  kind: mlp-batchnorm\n"), 0o600))

	m := NewManager(path, logger)
	assert.Nil(t, m.GetConfig())
	require.NoError(t, m.LoadConfig())
	assert.Equal(t, model.KindMLPBatchNorm, m.GetConfig().Model.Kind)
	assert.Equal(t, path, m.Path())

	missing := NewManager(filepath.Join(t.TempDir(), "nope.yaml"), logger)
	assert.ErrorIs(t, missing.LoadConfig(), os.ErrNotExist)
}

func TestManager_SearchesDefaultLocations(t *testing.T) {
	logger, _ := test.NewNullLogger()

	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)

	m := NewManager("", logger)
	require.NoError(t, m.LoadConfig())
	assert.Equal(t, "", m.Path())
	assert.Equal(t, model.KindMLP, m.GetConfig().Model.Kind)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "makemore.yaml"), []byte("model:\n  kind: bigram\n"), 0o600))

	m = NewManager("", logger)
	require.NoError(t, m.LoadConfig())
	assert.Equal(t, filepath.Join("config", "makemore.yaml"), m.Path())
	assert.Equal(t, model.KindBigram, m.GetConfig().Model.Kind)
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
