package cpu

import (
	"github.com/born-ml/makemore/internal/tensor"
)

// MulScalar multiplies each element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unary("mulscalar", x, func(v float32) float32 { return v * scalar })
}

// AddScalar adds a scalar to each element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unary("addscalar", x, func(v float32) float32 { return v + scalar })
}

func (cpu *CPUBackend) unary(op string, x *tensor.RawTensor, f func(float32) float32) *tensor.RawTensor {
	requireFloat32(op, x)
	result := cpu.newFloat32(op, x.Shape())
	dst := result.AsFloat32()
	for i, v := range x.AsFloat32() {
		dst[i] = f(v)
	}
	return result
}
