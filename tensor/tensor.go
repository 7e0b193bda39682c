// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/gpuarray/internal/tensor"
)

// DType is the constraint for element types: float32, int32, uint32.
type DType = tensor.DType

// DataType represents the runtime element type.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Int32   DataType = tensor.Int32
	Uint32  DataType = tensor.Uint32
)

// Shape represents the extents of an array.
// Example: Shape{2, 3, 4} is a 2×3×4 array.
type Shape = tensor.Shape

// Layout maps logical coordinates onto a flat buffer.
type Layout = tensor.Layout

// Slice selects a strided range along one axis.
type Slice = tensor.Slice

// Array is a host-resident strided array.
type Array[T DType] = tensor.Array[T]

// Errors.
var (
	ErrInvalidShape  = tensor.ErrInvalidShape
	ErrBroadcast     = tensor.ErrBroadcast
	ErrInvalidSlice  = tensor.ErrInvalidSlice
	ErrInvalidAxes   = tensor.ErrInvalidAxes
	ErrNotContiguous = tensor.ErrNotContiguous
	ErrUnsupported   = tensor.ErrUnsupported
)

// New wraps row-major data in an array of the given shape.
func New[T DType](shape Shape, data []T) (*Array[T], error) {
	return tensor.New(shape, data)
}

// FromLayout wraps data with an arbitrary strided layout.
func FromLayout[T DType](data []T, layout Layout) (*Array[T], error) {
	return tensor.FromLayout(data, layout)
}

// Full creates an array filled with value.
func Full[T DType](shape Shape, value T) *Array[T] {
	return tensor.Full(shape, value)
}

// Zeros creates a zero-filled array.
func Zeros[T DType](shape Shape) *Array[T] {
	return tensor.Zeros[T](shape)
}

// Ones creates an array filled with ones.
func Ones[T DType](shape Shape) *Array[T] {
	return tensor.Ones[T](shape)
}

// Range creates a 1-D array start, start+step, ... up to (excluding) stop.
func Range[T DType](start, stop, step T) *Array[T] {
	return tensor.Range(start, stop, step)
}

// Contiguous returns the dense row-major layout for shape.
func Contiguous(shape Shape) Layout {
	return tensor.Contiguous(shape)
}

// BroadcastShapes returns the broadcast shape of a and b.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}

// All selects a whole axis.
func All() Slice { return tensor.All() }

// From selects start.. to the end of the axis.
func From(start int) Slice { return tensor.From(start) }

// To selects ..stop.
func To(stop int) Slice { return tensor.To(stop) }

// Between selects start..stop.
func Between(start, stop int) Slice { return tensor.Between(start, stop) }

// Index selects one element, keeping the axis.
func Index(i int) Slice { return tensor.Index(i) }

// Apply evaluates f elementwise over a and b with broadcasting.
func Apply[T DType](a, b *Array[T], f func(x, y T) T) (*Array[T], error) {
	return tensor.Apply(a, b, f)
}

// Map evaluates f over every element of a.
func Map[T DType](a *Array[T], f func(x T) T) *Array[T] { return tensor.Map(a, f) }

// Add returns a + b with broadcasting.
func Add[T DType](a, b *Array[T]) (*Array[T], error) { return tensor.Add(a, b) }

// Sub returns a - b with broadcasting.
func Sub[T DType](a, b *Array[T]) (*Array[T], error) { return tensor.Sub(a, b) }

// Mul returns a * b with broadcasting.
func Mul[T DType](a, b *Array[T]) (*Array[T], error) { return tensor.Mul(a, b) }

// Div returns a / b with broadcasting.
func Div[T DType](a, b *Array[T]) (*Array[T], error) { return tensor.Div(a, b) }

// Rem returns a % b with broadcasting.
func Rem[T DType](a, b *Array[T]) (*Array[T], error) { return tensor.Rem(a, b) }

// Min returns the elementwise minimum with broadcasting.
func Min[T DType](a, b *Array[T]) (*Array[T], error) { return tensor.Min(a, b) }

// Max returns the elementwise maximum with broadcasting.
func Max[T DType](a, b *Array[T]) (*Array[T], error) { return tensor.Max(a, b) }

// Pow returns a raised to b elementwise (float32 only).
func Pow[T DType](a, b *Array[T]) (*Array[T], error) { return tensor.Pow(a, b) }
