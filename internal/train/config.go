package train

import (
	"fmt"
	"strings"
)

// Optimizer names accepted by Config.Optimizer.
const (
	OptimizerAdam = "adam"
	OptimizerSGD  = "sgd"
)

// Config holds training hyperparameters.
type Config struct {
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"` // 0 = full batch
	LearningRate float32 `yaml:"learning_rate"`
	Optimizer    string  `yaml:"optimizer"` // adam or sgd
	Momentum     float32 `yaml:"momentum"`  // sgd only

	// DecayStep multiplies the learning rate by DecayFactor every
	// DecayStep optimizer steps. 0 keeps it constant.
	DecayStep   int     `yaml:"decay_step"`
	DecayFactor float32 `yaml:"decay_factor"`

	Shuffle  bool `yaml:"shuffle"`   // reshuffle the training set every epoch
	LogEvery int  `yaml:"log_every"` // log every N steps at debug level, 0 = epochs only
}

// DefaultConfig returns mini-batch Adam settings: 50 epochs of batches of
// 256 at learning rate 0.001.
func DefaultConfig() Config {
	return Config{
		Epochs:       50,
		BatchSize:    256,
		LearningRate: 0.001,
		Optimizer:    OptimizerAdam,
		DecayFactor:  0.1,
		Shuffle:      true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Epochs < 1 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size must not be negative, got %d", c.BatchSize)
	}
	if !(c.LearningRate > 0) {
		return fmt.Errorf("learning rate must be positive, got %g", c.LearningRate)
	}
	switch strings.ToLower(c.Optimizer) {
	case OptimizerAdam, OptimizerSGD:
	default:
		return fmt.Errorf("unknown optimizer %q (want %s or %s)", c.Optimizer, OptimizerAdam, OptimizerSGD)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("momentum must be in [0, 1), got %g", c.Momentum)
	}
	if c.DecayStep < 0 {
		return fmt.Errorf("decay step must not be negative, got %d", c.DecayStep)
	}
	if c.DecayStep > 0 && (c.DecayFactor <= 0 || c.DecayFactor > 1) {
		return fmt.Errorf("decay factor must be in (0, 1], got %g", c.DecayFactor)
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("log interval must not be negative, got %d", c.LogEvery)
	}
	return nil
}
