// Package tensor provides the core tensor types used by the makemore models.
package tensor

import "fmt"

// DType constrains tensor element types. Float32 carries activations,
// parameters and gradients; Int32 carries symbol codes.
type DType interface {
	~float32 | ~int32
}

// DataType is the runtime tag of a tensor's element type.
type DataType int

const (
	Float32 DataType = iota
	Int32
)

var dataTypeNames = [...]string{Float32: "float32", Int32: "int32"}

func (dt DataType) valid() bool {
	return dt >= 0 && int(dt) < len(dataTypeNames)
}

// Size returns the byte size of one element. Both supported types are
// four bytes wide.
func (dt DataType) Size() int {
	if !dt.valid() {
		panic(fmt.Sprintf("tensor: unknown data type %d", int(dt)))
	}
	return 4
}

func (dt DataType) String() string {
	if !dt.valid() {
		return fmt.Sprintf("DataType(%d)", int(dt))
	}
	return dataTypeNames[dt]
}

// dataTypeOf returns the tag for T.
func dataTypeOf[T DType]() DataType {
	var zero T
	if _, ok := any(zero).(int32); ok {
		return Int32
	}
	if _, ok := any(zero).(float32); ok {
		return Float32
	}
	panic(fmt.Sprintf("tensor: unsupported element type %T", zero))
}
