package tensor

import (
	"fmt"
	"math"

	"github.com/born-ml/gpuarray/internal/parallel"
)

// hostParallel splits large host loops across CPUs.
var hostParallel = parallel.DefaultConfig()

// Apply evaluates f elementwise over a and b after broadcasting them to a
// common shape. The result is dense and row-major.
func Apply[T DType](a, b *Array[T], f func(x, y T) T) (*Array[T], error) {
	la, lb, err := BroadcastLayouts(a.layout, b.layout)
	if err != nil {
		return nil, err
	}

	out := make([]T, la.NumElements())
	parallel.Chunks(len(out), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = f(a.data[la.FlatIndex(i)], b.data[lb.FlatIndex(i)])
		}
	}, hostParallel)
	return &Array[T]{data: out, layout: Contiguous(la.Shape)}, nil
}

// Map evaluates f over every element of a.
func Map[T DType](a *Array[T], f func(x T) T) *Array[T] {
	out := a.Values()
	for i := range out {
		out[i] = f(out[i])
	}
	return &Array[T]{data: out, layout: Contiguous(a.layout.Shape)}
}

// Add returns a + b with broadcasting.
func Add[T DType](a, b *Array[T]) (*Array[T], error) {
	return Apply(a, b, func(x, y T) T { return x + y })
}

// Sub returns a - b with broadcasting.
func Sub[T DType](a, b *Array[T]) (*Array[T], error) {
	return Apply(a, b, func(x, y T) T { return x - y })
}

// Mul returns a * b with broadcasting.
func Mul[T DType](a, b *Array[T]) (*Array[T], error) {
	return Apply(a, b, func(x, y T) T { return x * y })
}

// Div returns a / b with broadcasting.
// Integer division by zero yields the dividend, as on the GPU.
func Div[T DType](a, b *Array[T]) (*Array[T], error) {
	return Apply(a, b, DivValue[T])
}

// Rem returns the truncated remainder a % b with broadcasting.
// Integer remainder by zero yields 0, as on the GPU.
func Rem[T DType](a, b *Array[T]) (*Array[T], error) {
	return Apply(a, b, RemValue[T])
}

// Min returns the elementwise minimum with broadcasting.
func Min[T DType](a, b *Array[T]) (*Array[T], error) {
	return Apply(a, b, func(x, y T) T { return min(x, y) })
}

// Max returns the elementwise maximum with broadcasting.
func Max[T DType](a, b *Array[T]) (*Array[T], error) {
	return Apply(a, b, func(x, y T) T { return max(x, y) })
}

// Pow returns a raised to b elementwise. Only defined for Float32.
// Negative bases give a real result only for integral exponents.
func Pow[T DType](a, b *Array[T]) (*Array[T], error) {
	if !DataTypeOf[T]().IsFloat() {
		return nil, fmt.Errorf("%w: pow on %s", ErrUnsupported, DataTypeOf[T]())
	}
	return Apply(a, b, func(x, y T) T { return T(math.Pow(float64(x), float64(y))) })
}

// DivValue divides two scalars with WGSL semantics for integer edge cases.
func DivValue[T DType](x, y T) T {
	switch xv := any(x).(type) {
	case float32:
		return T(xv / float32(y))
	case int32:
		yv := int32(y)
		if yv == 0 || (xv == math.MinInt32 && yv == -1) {
			return x
		}
		return T(xv / yv)
	case uint32:
		yv := uint32(y)
		if yv == 0 {
			return x
		}
		return T(xv / yv)
	}
	panic("unsupported type")
}

// RemValue computes the truncated remainder with WGSL semantics for integer
// edge cases.
func RemValue[T DType](x, y T) T {
	switch xv := any(x).(type) {
	case float32:
		return T(float32(math.Mod(float64(xv), float64(y))))
	case int32:
		yv := int32(y)
		if yv == 0 || (xv == math.MinInt32 && yv == -1) {
			return 0
		}
		return T(xv % yv)
	case uint32:
		yv := uint32(y)
		if yv == 0 {
			return 0
		}
		return T(xv % yv)
	}
	panic("unsupported type")
}
