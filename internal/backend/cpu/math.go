package cpu

import (
	"math"

	"github.com/born-ml/makemore/internal/tensor"
)

// Exp computes element-wise exponential: exp(x).
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("exp", x, func(v float32) float32 {
		return float32(math.Exp(float64(v)))
	})
}

// Log computes element-wise natural logarithm: ln(x).
// Zero maps to -Inf and negatives to NaN.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("log", x, func(v float32) float32 {
		return float32(math.Log(float64(v)))
	})
}

// Sqrt computes element-wise square root.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sqrt", x, func(v float32) float32 {
		return float32(math.Sqrt(float64(v)))
	})
}

// Tanh computes element-wise hyperbolic tangent.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x, func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
}
