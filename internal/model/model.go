// Package model builds the character-level networks.
//
// Every network maps a batch of contexts, int32 [N, W], to next-symbol
// logits, float32 [N, 27]:
//
//	bigram         one-hot(27) -> Linear(27, 27)
//	mlp            Embedding(27, E) -> flatten -> Linear(W*E, H) -> Tanh -> Linear(H, 27)
//	mlp-batchnorm  Embedding(27, E) -> flatten -> Linear(W*E, H) -> BatchNorm -> Tanh -> Linear(H, 27)
//	wavenet        Embedding(27, E) -> log2(W) x [pairs -> Linear -> BatchNorm -> Tanh] -> Linear(H, 27)
package model

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/makemore/internal/nn"
	"github.com/born-ml/makemore/internal/tensor"
	"github.com/born-ml/makemore/internal/vocab"
)

// outputGain is the Kaiming gain for tanh used on the output layer of the
// batch-normalized networks.
const outputGain = 5.0 / 3.0

// Model is a trainable next-symbol network.
type Model[B tensor.Backend] interface {
	// Forward maps contexts [N, W] to logits [N, vocab.Size].
	Forward(contexts *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B]

	// Parameters returns the trainable tensors, uniquely named.
	Parameters() []*nn.Parameter[B]

	// Buffers returns non-trainable state saved with the model.
	Buffers() []*nn.Parameter[B]

	// SetTraining switches batch norm layers between batch and running
	// statistics.
	SetTraining(training bool)

	ContextWidth() int
	Config() Config
}

// New builds the network described by cfg. Zero sizes take the defaults
// for cfg.Kind.
func New[B tensor.Backend](cfg Config, backend B, rng *rand.Rand) (Model[B], error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	net := &network[B]{cfg: cfg}
	switch cfg.Kind {
	case KindBigram:
		net.body = nn.NewSequential[B](
			nn.NewLinear(vocab.Size, vocab.Size, rng, backend),
		)
	case KindMLP:
		net.embedding = nn.NewEmbedding(vocab.Size, cfg.EmbedDim, rng, backend)
		net.body = nn.NewSequential[B](
			nn.NewFlatten[B](),
			nn.NewLinear(cfg.ContextWidth*cfg.EmbedDim, cfg.Hidden, rng, backend),
			nn.NewTanh[B](),
			nn.NewLinear(cfg.Hidden, vocab.Size, rng, backend),
		)
	case KindMLPBatchNorm:
		net.embedding = nn.NewEmbedding(vocab.Size, cfg.EmbedDim, rng, backend)
		net.body = nn.NewSequential[B](
			nn.NewFlatten[B](),
			nn.NewLinear(cfg.ContextWidth*cfg.EmbedDim, cfg.Hidden, rng, backend, nn.WithoutBias()),
			nn.NewBatchNorm1D(cfg.Hidden, backend),
			nn.NewTanh[B](),
			nn.NewLinear(cfg.Hidden, vocab.Size, rng, backend, nn.WithKaimingNormal(outputGain)),
		)
	case KindWaveNet:
		net.embedding = nn.NewEmbedding(vocab.Size, cfg.EmbedDim, rng, backend)
		net.body = nn.NewSequential[B]()
		in := cfg.EmbedDim
		for t := cfg.ContextWidth; t > 1; t /= 2 {
			net.body.Add(nn.NewFlattenConsecutive[B](2))
			net.body.Add(nn.NewLinear(2*in, cfg.Hidden, rng, backend, nn.WithoutBias()))
			net.body.Add(nn.NewBatchNorm1D(cfg.Hidden, backend))
			net.body.Add(nn.NewTanh[B]())
			in = cfg.Hidden
		}
		net.body.Add(nn.NewLinear(cfg.Hidden, vocab.Size, rng, backend, nn.WithKaimingNormal(outputGain)))
	}

	net.name()
	return net, nil
}

// network is an input stage (one-hot or embedding) followed by a
// Sequential body.
type network[B tensor.Backend] struct {
	cfg       Config
	embedding *nn.Embedding[B] // nil for one-hot input
	body      *nn.Sequential[B]
}

// name gives every tensor a unique, stable name: "embedding.weight",
// "layers.<i>.<name>".
func (n *network[B]) name() {
	if n.embedding != nil {
		nn.PrefixParameters("embedding", n.embedding.Parameters())
	}
	for i := 0; i < n.body.Len(); i++ {
		layer := n.body.Module(i)
		prefix := fmt.Sprintf("layers.%d", i)
		nn.PrefixParameters(prefix, layer.Parameters())
		if buffered, ok := layer.(nn.Buffered[B]); ok {
			nn.PrefixParameters(prefix, buffered.Buffers())
		}
	}
}

// Forward maps contexts [N, W] to logits [N, 27].
func (n *network[B]) Forward(contexts *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	shape := contexts.Shape()
	if len(shape) != 2 || shape[1] != n.cfg.ContextWidth {
		panic(fmt.Sprintf("model.Forward: expected contexts [N, %d], got %v", n.cfg.ContextWidth, shape))
	}

	var x *tensor.Tensor[float32, B]
	if n.embedding == nil {
		x = tensor.OneHot(contexts, vocab.Size).Reshape(shape[0], vocab.Size)
	} else {
		x = n.embedding.Forward(contexts) // [N, W, E]
	}
	return n.body.Forward(x)
}

func (n *network[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	if n.embedding != nil {
		params = append(params, n.embedding.Parameters()...)
	}
	return append(params, n.body.Parameters()...)
}

func (n *network[B]) Buffers() []*nn.Parameter[B] {
	return n.body.Buffers()
}

func (n *network[B]) SetTraining(training bool) {
	n.body.SetTraining(training)
}

func (n *network[B]) ContextWidth() int {
	return n.cfg.ContextWidth
}

func (n *network[B]) Config() Config {
	return n.cfg
}

// Tensors returns the parameters followed by the buffers: everything a
// checkpoint stores.
func Tensors[B tensor.Backend](m Model[B]) []*nn.Parameter[B] {
	return append(m.Parameters(), m.Buffers()...)
}

// StateDict maps every parameter and buffer name to its raw tensor.
func StateDict[B tensor.Backend](m Model[B]) (map[string]*tensor.RawTensor, error) {
	return nn.StateDict(Tensors(m))
}

// LoadStateDict copies state into m. Names, shapes and dtypes must match
// exactly.
func LoadStateDict[B tensor.Backend](m Model[B], state map[string]*tensor.RawTensor) error {
	if err := nn.LoadStateDict(Tensors(m), state); err != nil {
		return fmt.Errorf("load %s state: %w", m.Config().Kind, err)
	}
	return nil
}
