package webgpu

import (
	"context"
	"fmt"

	"github.com/born-ml/gpuarray/internal/tensor"
)

// Array is a strided view of a GPU buffer registered in a Context's arena.
// View operations only produce a new layout over the same buffer; all views
// of one buffer share it.
type Array[T tensor.DType] struct {
	ctx    *Context
	id     BufferID
	layout tensor.Layout
}

// Context returns the context that owns the array's buffer.
func (a *Array[T]) Context() *Context {
	return a.ctx
}

// Shape returns the logical shape.
func (a *Array[T]) Shape() tensor.Shape {
	return a.layout.Shape
}

// Strides returns the per-axis strides in elements.
func (a *Array[T]) Strides() []int {
	return a.layout.Strides
}

// Offset returns the element offset of the first logical element inside the
// buffer.
func (a *Array[T]) Offset() int {
	return a.layout.Offset
}

// Layout returns a copy of the view's layout.
func (a *Array[T]) Layout() tensor.Layout {
	return a.layout.Clone()
}

// DType returns the element type.
func (a *Array[T]) DType() tensor.DataType {
	return tensor.DataTypeOf[T]()
}

// NDim returns the number of axes.
func (a *Array[T]) NDim() int {
	return a.layout.Rank()
}

// Len returns the logical number of elements.
func (a *Array[T]) Len() int {
	return a.layout.NumElements()
}

// Handle returns the opaque reference to the view's first logical element.
func (a *Array[T]) Handle() Handle {
	return Handle{Buffer: a.id, Offset: a.layout.Offset}
}

// Ptr returns the synthetic address of the first logical element. Two views
// of the same buffer have addresses that differ by their offset in bytes.
func (a *Array[T]) Ptr() Addr {
	addr, err := a.ctx.arena.Addr(a.Handle())
	if err != nil {
		panic("webgpu: Ptr: " + err.Error())
	}
	return addr
}

// IsStandard reports whether the view is dense row-major.
func (a *Array[T]) IsStandard() bool {
	return a.layout.IsStandard()
}

func (a *Array[T]) view(layout tensor.Layout) *Array[T] {
	return &Array[T]{ctx: a.ctx, id: a.id, layout: layout}
}

// Slice returns a view selected by one tensor.Slice per axis.
func (a *Array[T]) Slice(slices ...tensor.Slice) (*Array[T], error) {
	layout, err := a.layout.Slice(slices...)
	if err != nil {
		return nil, err
	}
	return a.view(layout), nil
}

// ReversedAxes returns a view with the axis order reversed.
func (a *Array[T]) ReversedAxes() *Array[T] {
	return a.view(a.layout.ReversedAxes())
}

// Transpose returns a view with permuted axes.
func (a *Array[T]) Transpose(axes ...int) (*Array[T], error) {
	layout, err := a.layout.Transpose(axes...)
	if err != nil {
		return nil, err
	}
	return a.view(layout), nil
}

// BroadcastTo returns a view with the given shape.
func (a *Array[T]) BroadcastTo(shape tensor.Shape) (*Array[T], error) {
	layout, err := a.layout.BroadcastTo(shape)
	if err != nil {
		return nil, err
	}
	return a.view(layout), nil
}

// Reshape returns a view with a new shape. Only standard layouts can be
// reshaped without copying; other layouts return tensor.ErrNotContiguous.
func (a *Array[T]) Reshape(shape tensor.Shape) (*Array[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != a.Len() {
		return nil, fmt.Errorf("%w: cannot reshape %v into %v", tensor.ErrInvalidShape, a.Shape(), shape)
	}
	if !a.layout.IsStandard() {
		return nil, fmt.Errorf("%w: reshape of %v with strides %v", tensor.ErrNotContiguous, a.Shape(), a.Strides())
	}
	layout := tensor.Contiguous(shape)
	layout.Offset = a.layout.Offset
	return a.view(layout), nil
}

// ToHost copies the view back to host memory as a dense row-major array.
//
// The whole buffer region is read, then the view's layout is applied on the
// host, so any combination of offset, negative and zero strides round-trips.
func (a *Array[T]) ToHost(ctx context.Context) (*tensor.Array[T], error) {
	c := a.ctx
	if err := c.checkLive(); err != nil {
		return nil, err
	}
	if err := c.arena.CheckSpan(a.Handle(), a.layout); err != nil {
		return nil, err
	}
	region, err := c.arena.Region(a.id)
	if err != nil {
		return nil, err
	}
	if region.Buffer == nil {
		return nil, ErrReleased
	}

	raw, err := c.readBuffer(ctx, region.Buffer, uint64(region.Len*region.DType.Size()))
	if err != nil {
		return nil, err
	}
	data, err := decode[T](raw, region.Len)
	if err != nil {
		return nil, err
	}

	if a.layout.IsStandard() && a.layout.Offset == 0 && region.Len == a.Len() {
		return tensor.New(a.layout.Shape.Clone(), data)
	}
	full, err := tensor.FromLayout(data, a.layout)
	if err != nil {
		return nil, err
	}
	return full.Owned(), nil
}

// String describes the view without reading it back.
func (a *Array[T]) String() string {
	return fmt.Sprintf("webgpu.Array[%s]{shape: %v, strides: %v, offset: %d, buffer: %d}",
		a.DType(), []int(a.layout.Shape), a.layout.Strides, a.layout.Offset, a.id)
}
