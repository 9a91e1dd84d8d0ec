package cpu

import (
	"fmt"

	"github.com/born-ml/makemore/internal/parallel"
	"github.com/born-ml/makemore/internal/tensor"
)

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N).
// Output rows are computed independently and split across workers.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}
	requireFloat32("matmul", a)
	requireFloat32("matmul", b)

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := cpu.newFloat32("matmul", tensor.Shape{m, n})
	matmulFloat32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, cpu.par)
	return result
}

// matmulFloat32 computes C[i,j] = sum_k A[i,k] * B[k,j].
// The i-k-j loop order walks B and C rows contiguously.
func matmulFloat32(c, a, b []float32, m, k, n int, cfg parallel.Config) {
	parallel.For(m, func(i int) {
		row := c[i*n : (i+1)*n]
		for kIdx := 0; kIdx < k; kIdx++ {
			aik := a[i*k+kIdx]
			bRow := b[kIdx*n : (kIdx+1)*n]
			for j, bkj := range bRow {
				row[j] += aik * bkj
			}
		}
	}, cfg)
}
