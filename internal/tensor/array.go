package tensor

import (
	"fmt"
)

// Array is a host-resident strided array. Views created by Slice,
// ReversedAxes, Transpose and BroadcastTo share the underlying data slice;
// only the layout changes.
type Array[T DType] struct {
	data   []T
	layout Layout
}

// New wraps data (row-major) in an array of the given shape.
// The array takes ownership of data.
func New[T DType](shape Shape, data []T) (*Array[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("%w: %d elements for shape %v", ErrInvalidShape, len(data), shape)
	}
	return &Array[T]{data: data, layout: Contiguous(shape)}, nil
}

// FromLayout wraps data with an arbitrary strided layout. Every element the
// layout can reach must lie inside data.
func FromLayout[T DType](data []T, layout Layout) (*Array[T], error) {
	if err := layout.Shape.Validate(); err != nil {
		return nil, err
	}
	if len(layout.Strides) != layout.Rank() {
		return nil, fmt.Errorf("%w: %d strides for rank %d", ErrInvalidShape, len(layout.Strides), layout.Rank())
	}
	lo, hi := layout.Span()
	if lo < 0 || hi >= len(data) {
		return nil, fmt.Errorf("%w: layout reaches [%d, %d] of %d elements", ErrInvalidShape, lo, hi, len(data))
	}
	return &Array[T]{data: data, layout: layout.Clone()}, nil
}

// Full creates an array filled with value.
// Panics if the shape is invalid.
func Full[T DType](shape Shape, value T) *Array[T] {
	if err := shape.Validate(); err != nil {
		panic("tensor: Full: " + err.Error())
	}
	data := make([]T, shape.NumElements())
	for i := range data {
		data[i] = value
	}
	return &Array[T]{data: data, layout: Contiguous(shape)}
}

// Zeros creates a zero-filled array.
func Zeros[T DType](shape Shape) *Array[T] {
	return Full[T](shape, 0)
}

// Ones creates an array filled with ones.
func Ones[T DType](shape Shape) *Array[T] {
	return Full[T](shape, 1)
}

// Range creates a 1-D array with values start, start+step, ... below stop
// (above stop for a negative step).
// Panics if the range is empty or step is zero.
func Range[T DType](start, stop, step T) *Array[T] {
	var zero T
	if step == zero {
		panic("tensor: Range: zero step")
	}
	var data []T
	for v := start; (step > zero && v < stop) || (step < zero && v > stop); v += step {
		data = append(data, v)
	}
	if len(data) == 0 {
		panic(fmt.Sprintf("tensor: Range: empty range [%v, %v) step %v", start, stop, step))
	}
	return &Array[T]{data: data, layout: Contiguous(Shape{len(data)})}
}

// Shape returns the array's shape.
func (a *Array[T]) Shape() Shape {
	return a.layout.Shape
}

// Strides returns the per-axis strides in elements.
func (a *Array[T]) Strides() []int {
	return a.layout.Strides
}

// Offset returns the index in Data of the element at all-zero coordinates.
func (a *Array[T]) Offset() int {
	return a.layout.Offset
}

// Layout returns a copy of the array's layout.
func (a *Array[T]) Layout() Layout {
	return a.layout.Clone()
}

// DType returns the runtime element type.
func (a *Array[T]) DType() DataType {
	return DataTypeOf[T]()
}

// NDim returns the number of axes.
func (a *Array[T]) NDim() int {
	return a.layout.Rank()
}

// Len returns the logical number of elements.
func (a *Array[T]) Len() int {
	return a.layout.NumElements()
}

// Data returns the underlying element buffer shared by all views.
// WARNING: physical layout, not logical order.
func (a *Array[T]) Data() []T {
	return a.data
}

// At returns the element at the given coordinates.
func (a *Array[T]) At(idx ...int) T {
	if len(idx) != a.NDim() {
		panic(fmt.Sprintf("tensor: At: %d indices for rank %d", len(idx), a.NDim()))
	}
	flat := a.layout.Offset
	for i, c := range idx {
		if c < 0 || c >= a.layout.Shape[i] {
			panic(fmt.Sprintf("tensor: At: index %d out of range for axis %d (extent %d)", c, i, a.layout.Shape[i]))
		}
		flat += c * a.layout.Strides[i]
	}
	return a.data[flat]
}

// Values returns the elements in row-major logical order.
func (a *Array[T]) Values() []T {
	n := a.Len()
	out := make([]T, n)
	if a.layout.IsStandard() {
		copy(out, a.data[a.layout.Offset:a.layout.Offset+n])
		return out
	}
	for i := range out {
		out[i] = a.data[a.layout.FlatIndex(i)]
	}
	return out
}

// Owned returns a dense row-major copy of the array.
func (a *Array[T]) Owned() *Array[T] {
	return &Array[T]{data: a.Values(), layout: Contiguous(a.layout.Shape)}
}

// Reshape returns an array with a new shape and the same logical elements.
// Standard layouts are reshaped as views; other layouts are copied first.
func (a *Array[T]) Reshape(shape Shape) (*Array[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != a.Len() {
		return nil, fmt.Errorf("%w: cannot reshape %v into %v", ErrInvalidShape, a.Shape(), shape)
	}
	src := a
	if !a.layout.IsStandard() {
		src = a.Owned()
	}
	layout := Contiguous(shape)
	layout.Offset = src.layout.Offset
	return &Array[T]{data: src.data, layout: layout}, nil
}

// Slice returns a view selected by one Slice per axis.
func (a *Array[T]) Slice(slices ...Slice) (*Array[T], error) {
	layout, err := a.layout.Slice(slices...)
	if err != nil {
		return nil, err
	}
	return &Array[T]{data: a.data, layout: layout}, nil
}

// ReversedAxes returns a view with the axis order reversed.
func (a *Array[T]) ReversedAxes() *Array[T] {
	return &Array[T]{data: a.data, layout: a.layout.ReversedAxes()}
}

// Transpose returns a view with permuted axes.
func (a *Array[T]) Transpose(axes ...int) (*Array[T], error) {
	layout, err := a.layout.Transpose(axes...)
	if err != nil {
		return nil, err
	}
	return &Array[T]{data: a.data, layout: layout}, nil
}

// BroadcastTo returns a read-only view with the given shape.
func (a *Array[T]) BroadcastTo(shape Shape) (*Array[T], error) {
	layout, err := a.layout.BroadcastTo(shape)
	if err != nil {
		return nil, err
	}
	return &Array[T]{data: a.data, layout: layout}, nil
}

// Equal reports whether both arrays have the same shape and logical elements.
func (a *Array[T]) Equal(other *Array[T]) bool {
	if !a.Shape().Equal(other.Shape()) {
		return false
	}
	av, ov := a.Values(), other.Values()
	for i := range av {
		if av[i] != ov[i] {
			return false
		}
	}
	return true
}

// String formats the shape and logical values.
func (a *Array[T]) String() string {
	return fmt.Sprintf("Array%v%v", []int(a.Shape()), a.Values())
}
