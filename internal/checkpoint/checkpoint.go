// Package checkpoint saves and restores trained models.
//
// A checkpoint is a SafeTensors file. Every parameter and buffer is stored
// under its model name; the "__metadata__" entry carries the format tag, the
// format version and the YAML-encoded model configuration, so Load can
// rebuild the architecture before copying the weights in.
package checkpoint

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/makemore/internal/model"
	"github.com/born-ml/makemore/internal/tensor"
)

// FormatVersion is written to every checkpoint.
const FormatVersion = 1

// Metadata keys.
const (
	KeyFormat  = "format"
	KeyVersion = "version"
	KeyModel   = "model"
)

const formatName = "makemore"

// Write encodes m to w.
func Write[B tensor.Backend](w io.Writer, m model.Model[B]) error {
	state, err := model.StateDict(m)
	if err != nil {
		return fmt.Errorf("collect state: %w", err)
	}

	cfg, err := yaml.Marshal(m.Config())
	if err != nil {
		return fmt.Errorf("encode model config: %w", err)
	}

	return Encode(w, state, map[string]string{
		KeyFormat:  formatName,
		KeyVersion: strconv.Itoa(FormatVersion),
		KeyModel:   string(cfg),
	})
}

// Save writes m to path, replacing any existing file.
func Save[B tensor.Backend](path string, m model.Model[B]) error {
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the user
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := Write(w, m); err != nil {
		_ = f.Close()
		return fmt.Errorf("write checkpoint %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write checkpoint %s: %w", path, err)
	}
	return f.Close()
}

// Read decodes a model from r, building it on backend.
func Read[B tensor.Backend](r io.Reader, backend B) (model.Model[B], error) {
	f, err := Decode(r)
	if err != nil {
		return nil, err
	}

	cfg, err := ModelConfig(f.Metadata)
	if err != nil {
		return nil, err
	}

	// Every weight is overwritten below, so the init seed does not matter.
	m, err := model.New(cfg, backend, rand.New(rand.NewSource(0))) //nolint:gosec // weights are replaced
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	if err := model.LoadStateDict(m, f.Tensors); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads the checkpoint at path.
func Load[B tensor.Backend](path string, backend B) (model.Model[B], error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the user
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()

	m, err := Read(bufio.NewReader(f), backend)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", path, err)
	}
	return m, nil
}

// ModelConfig extracts the model configuration from checkpoint metadata.
func ModelConfig(metadata map[string]string) (model.Config, error) {
	if metadata[KeyFormat] != formatName {
		return model.Config{}, ErrNotCheckpoint
	}

	version, err := strconv.Atoi(metadata[KeyVersion])
	if err != nil || version != FormatVersion {
		return model.Config{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, metadata[KeyVersion])
	}

	var cfg model.Config
	if err := yaml.Unmarshal([]byte(metadata[KeyModel]), &cfg); err != nil {
		return model.Config{}, fmt.Errorf("decode model config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return model.Config{}, fmt.Errorf("model config: %w", err)
	}
	return cfg, nil
}
