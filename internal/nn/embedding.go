package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/makemore/internal/tensor"
)

// Embedding is a lookup table mapping symbol codes to dense vectors.
//
// Input: int32 indices of any shape [...]
// Output: float32 [..., EmbedDim]
//
// Embedding is not a Module: its input is an index tensor.
//
// Example:
//
//	emb := nn.NewEmbedding(27, 10, rng, backend)
//	vectors := emb.Forward(contexts) // [N, 8] -> [N, 8, 10]
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B] // [NumEmbed, EmbedDim]
	NumEmbed int
	EmbedDim int
}

// NewEmbedding creates an embedding table initialized from N(0, 1).
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, rng *rand.Rand, backend B) *Embedding[B] {
	weight := Normal(1, tensor.Shape{numEmbeddings, embeddingDim}, rng, backend)
	return NewEmbeddingWithWeight(weight)
}

// NewEmbeddingWithWeight wraps an existing [NumEmbed, EmbedDim] tensor.
func NewEmbeddingWithWeight[B tensor.Backend](weight *tensor.Tensor[float32, B]) *Embedding[B] {
	shape := weight.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("embedding weight must be 2D, got shape %v", shape))
	}

	return &Embedding[B]{
		Weight:   NewParameter("weight", weight),
		NumEmbed: shape[0],
		EmbedDim: shape[1],
	}
}

// Forward looks up the rows for indices.
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return e.Weight.Tensor().Embedding(indices)
}

// Parameters returns [weight].
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
