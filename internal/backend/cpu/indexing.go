package cpu

import (
	"fmt"

	"github.com/born-ml/makemore/internal/tensor"
)

// Embedding performs embedding lookup: gathers rows from weight by indices.
//
// weight: [numEmbeddings, embeddingDim] float32
// indices: any shape [...] int32
// Output: [..., embeddingDim]
//
// Panics on an index outside [0, numEmbeddings).
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	wShape := weight.Shape()
	if len(wShape) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D [num_embeddings, embedding_dim], got %v", wShape))
	}
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("embedding: indices must be int32, got %s", indices.DType()))
	}
	requireFloat32("embedding", weight)

	numEmbeddings, embeddingDim := wShape[0], wShape[1]

	outShape := append(indices.Shape().Clone(), embeddingDim)
	result := cpu.newFloat32("embedding", outShape)

	dst := result.AsFloat32()
	w := weight.AsFloat32()
	for i, idx := range indices.AsInt32() {
		if idx < 0 || int(idx) >= numEmbeddings {
			panic(fmt.Sprintf("embedding: index %d out of range [0, %d)", idx, numEmbeddings))
		}
		copy(dst[i*embeddingDim:(i+1)*embeddingDim], w[int(idx)*embeddingDim:(int(idx)+1)*embeddingDim])
	}

	return result
}

// OneHot encodes int32 indices [...] as float32 [..., classes].
func (cpu *CPUBackend) OneHot(indices *tensor.RawTensor, classes int) *tensor.RawTensor {
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("onehot: indices must be int32, got %s", indices.DType()))
	}
	if classes <= 0 {
		panic(fmt.Sprintf("onehot: classes must be positive, got %d", classes))
	}

	outShape := append(indices.Shape().Clone(), classes)
	result := cpu.newFloat32("onehot", outShape)

	dst := result.AsFloat32()
	for i, idx := range indices.AsInt32() {
		if idx < 0 || int(idx) >= classes {
			panic(fmt.Sprintf("onehot: index %d out of range [0, %d)", idx, classes))
		}
		dst[i*classes+int(idx)] = 1
	}

	return result
}
