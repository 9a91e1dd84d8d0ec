package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a zero-filled tensor.
//
// Example:
//
//	t := tensor.Zeros[float32](tensor.Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, dataTypeOf[T](), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with value.
//
// Example:
//
//	t := tensor.Full[float32](tensor.Shape{3, 3}, 0.5, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float32 tensor with samples from N(0, 1) drawn from rng.
// Passing a seeded rng makes initialization reproducible.
func Randn[B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	return t
}

// Rand creates a float32 tensor with samples from U[0, 1) drawn from rng.
func Rand[B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = rng.Float32()
	}
	return t
}

// Arange creates a 1-D tensor with values [start, end).
//
// Example:
//
//	t := tensor.Arange[int32](0, 5, backend) // [0, 1, 2, 3, 4]
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	if end <= start {
		panic(fmt.Sprintf("arange: end (%v) must be greater than start (%v)", end, start))
	}
	n := int(end - start)
	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	for i := range data {
		data[i] = start + T(i)
	}
	return t
}
