// Package tensor provides the host-side strided array used as the reference
// and interchange format for GPU-resident arrays.
package tensor

// DType is the constraint for element types that can live in a WGSL storage
// buffer without extensions.
type DType interface {
	float32 | int32 | uint32
}

// DataType represents runtime element type information.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Int32
	Uint32
)

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32, Uint32:
		return 4
	default:
		panic("unknown data type")
	}
}

// Align returns the address alignment of one element in bytes.
func (dt DataType) Align() int {
	return dt.Size()
}

// IsFloat reports whether the type is a floating-point type.
func (dt DataType) IsFloat() bool {
	return dt == Float32
}

// WGSL returns the WGSL scalar type name.
func (dt DataType) WGSL() string {
	switch dt {
	case Float32:
		return "f32"
	case Int32:
		return "i32"
	case Uint32:
		return "u32"
	default:
		return ""
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	default:
		return "unknown"
	}
}

// DataTypeOf returns the runtime DataType for T.
func DataTypeOf[T DType]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case int32:
		return Int32
	case uint32:
		return Uint32
	default:
		panic("unsupported type")
	}
}
