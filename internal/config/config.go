// Package config loads the makemore YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/makemore/internal/generate"
	"github.com/born-ml/makemore/internal/model"
	"github.com/born-ml/makemore/internal/train"
	"github.com/born-ml/makemore/internal/vocab"
)

// DefaultSeed seeds every random source unless configured otherwise.
const DefaultSeed int64 = 2147483647

// Config is the full run configuration, loaded from YAML and overridden by
// command-line flags.
type Config struct {
	Corpus     string       `yaml:"corpus"`
	Seed       int64        `yaml:"seed"`
	Split      Split        `yaml:"split"`
	Model      model.Config `yaml:"model"`
	Train      train.Config `yaml:"train"`
	Sample     Sample       `yaml:"sample"`
	Checkpoint string       `yaml:"checkpoint"`
}

// Split gives the train and dev fractions; the rest is the test set.
type Split struct {
	Train float64 `yaml:"train"`
	Dev   float64 `yaml:"dev"`
}

// Sample holds the name generation settings.
type Sample struct {
	Num         int     `yaml:"num"`
	MaxLength   int     `yaml:"max_length"`
	Temperature float32 `yaml:"temperature"`
	TopK        int     `yaml:"top_k"` // 0 = full distribution
	Greedy      bool    `yaml:"greedy"`
}

// Default returns the settings used for kind when no file overrides them.
// The bigram model is trained full batch at a high learning rate.
func Default(kind model.Kind) (*Config, error) {
	m, err := model.DefaultConfig(kind)
	if err != nil {
		return nil, err
	}

	t := train.DefaultConfig()
	if kind == model.KindBigram {
		t.Epochs = 100
		t.BatchSize = 0
		t.LearningRate = 0.1
		t.Shuffle = false
	}

	return &Config{
		Seed:  DefaultSeed,
		Split: Split{Train: 0.8, Dev: 0.1},
		Model: m,
		Train: t,
		Sample: Sample{
			Num:         20,
			MaxLength:   generate.DefaultMaxLength,
			Temperature: 1,
		},
	}, nil
}

// Validate checks every section. The corpus path is checked by the
// commands that need it.
func (c *Config) Validate() error {
	if c.Split.Train <= 0 || c.Split.Dev < 0 || c.Split.Train+c.Split.Dev > 1 {
		return fmt.Errorf("split: invalid fractions train=%g dev=%g", c.Split.Train, c.Split.Dev)
	}
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := c.Train.Validate(); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if c.Sample.Num < 0 {
		return fmt.Errorf("sample: num must not be negative, got %d", c.Sample.Num)
	}
	if c.Sample.MaxLength < 0 {
		return fmt.Errorf("sample: max_length must not be negative, got %d", c.Sample.MaxLength)
	}
	if !(c.Sample.Temperature > 0) {
		return fmt.Errorf("sample: temperature must be positive, got %g", c.Sample.Temperature)
	}
	if c.Sample.TopK < 0 || c.Sample.TopK > vocab.Size {
		return fmt.Errorf("sample: top_k must be in [0, %d], got %d", vocab.Size, c.Sample.TopK)
	}
	return nil
}

// SamplingConfig converts the sample section for the generator.
func (s Sample) SamplingConfig() generate.SamplingConfig {
	return generate.SamplingConfig{Greedy: s.Greedy, TopK: s.TopK}
}

// Manager finds, reads and validates the configuration file.
type Manager struct {
	config     *Config
	configPath string
	logger     logrus.FieldLogger
}

// NewManager creates a manager for configPath. An empty path searches the
// default locations.
func NewManager(configPath string, logger logrus.FieldLogger) *Manager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{configPath: configPath, logger: logger}
}

// LoadConfig reads the file. Keys missing from the file keep the defaults
// of the model kind it names. When no path was given and none of the
// default locations exist, the mlp defaults are used.
func (m *Manager) LoadConfig() error {
	explicit := m.configPath != ""
	if !explicit {
		m.configPath = m.findConfigFile()
	}

	if m.configPath == "" {
		m.logger.Debug("no config file found, using defaults")
		cfg, err := Default(model.KindMLP)
		if err != nil {
			return err
		}
		m.config = cfg
		return nil
	}

	m.logger.WithField("path", m.configPath).Debug("loading config")
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", m.configPath, err)
	}
	m.config = cfg
	return nil
}

// GetConfig returns the loaded configuration, or nil before LoadConfig.
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Path returns the file that was loaded, or "" when defaults are in use.
func (m *Manager) Path() string {
	return m.configPath
}

func (m *Manager) findConfigFile() string {
	for _, path := range []string{"makemore.yaml", filepath.Join("config", "makemore.yaml")} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(homeDir, ".makemore", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Parse decodes a YAML document on top of the defaults for the model kind
// it names (mlp when it names none) and validates the result.
func Parse(data []byte) (*Config, error) {
	var head struct {
		Model struct {
			Kind string `yaml:"kind"`
		} `yaml:"model"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	kind := model.KindMLP
	if head.Model.Kind != "" {
		k, err := model.ParseKind(head.Model.Kind)
		if err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		kind = k
	}

	cfg, err := Default(kind)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Model.Kind = kind

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
