package model

import (
	"fmt"
	"strings"
)

// Kind names a network architecture.
type Kind string

// Supported architectures.
const (
	KindBigram       Kind = "bigram"
	KindMLP          Kind = "mlp"
	KindMLPBatchNorm Kind = "mlp-batchnorm"
	KindWaveNet      Kind = "wavenet"
)

// Kinds lists every supported architecture.
var Kinds = []Kind{KindBigram, KindMLP, KindMLPBatchNorm, KindWaveNet}

// ParseKind parses an architecture name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown model kind %q (want one of %v)", s, Kinds)
}

// Size limits accepted by Validate. They bound the memory a config read
// from an untrusted checkpoint can make New allocate.
const (
	MaxContextWidth = 64
	MaxEmbedDim     = 1024
	MaxHidden       = 4096
)

// Config describes a network.
type Config struct {
	Kind         Kind `yaml:"kind"`
	ContextWidth int  `yaml:"context_width"`
	EmbedDim     int  `yaml:"embed_dim,omitempty"`
	Hidden       int  `yaml:"hidden,omitempty"`
}

// DefaultConfig returns the reference sizes for kind.
func DefaultConfig(kind Kind) (Config, error) {
	switch kind {
	case KindBigram:
		return Config{Kind: kind, ContextWidth: 1}, nil
	case KindMLP, KindMLPBatchNorm:
		return Config{Kind: kind, ContextWidth: 3, EmbedDim: 20, Hidden: 200}, nil
	case KindWaveNet:
		return Config{Kind: kind, ContextWidth: 8, EmbedDim: 10, Hidden: 200}, nil
	default:
		return Config{}, fmt.Errorf("unknown model kind %q", kind)
	}
}

// WithDefaults fills zero sizes from DefaultConfig(c.Kind). Unknown kinds
// are returned unchanged and rejected later by Validate.
func (c Config) WithDefaults() Config {
	def, err := DefaultConfig(c.Kind)
	if err != nil {
		return c
	}
	if c.ContextWidth == 0 {
		c.ContextWidth = def.ContextWidth
	}
	if c.EmbedDim == 0 {
		c.EmbedDim = def.EmbedDim
	}
	if c.Hidden == 0 {
		c.Hidden = def.Hidden
	}
	return c
}

// Validate checks that the sizes are usable for the kind.
func (c Config) Validate() error {
	switch c.Kind {
	case KindBigram:
		if c.ContextWidth != 1 {
			return fmt.Errorf("bigram model needs context width 1, got %d", c.ContextWidth)
		}
		return nil
	case KindMLP, KindMLPBatchNorm, KindWaveNet:
	default:
		return fmt.Errorf("unknown model kind %q", c.Kind)
	}

	if c.ContextWidth < 1 || c.ContextWidth > MaxContextWidth {
		return fmt.Errorf("%s: context width must be in [1, %d], got %d", c.Kind, MaxContextWidth, c.ContextWidth)
	}
	if c.EmbedDim < 1 || c.EmbedDim > MaxEmbedDim {
		return fmt.Errorf("%s: embed dim must be in [1, %d], got %d", c.Kind, MaxEmbedDim, c.EmbedDim)
	}
	if c.Hidden < 1 || c.Hidden > MaxHidden {
		return fmt.Errorf("%s: hidden size must be in [1, %d], got %d", c.Kind, MaxHidden, c.Hidden)
	}
	if c.Kind == KindWaveNet && (c.ContextWidth < 2 || c.ContextWidth&(c.ContextWidth-1) != 0) {
		return fmt.Errorf("wavenet: context width must be a power of two >= 2, got %d", c.ContextWidth)
	}
	return nil
}
