package tensor

import "fmt"

// Layout describes how a logical array maps onto a flat element buffer.
// Strides are signed and counted in elements; a zero stride repeats one
// element along the axis (broadcasting) and a negative stride walks the axis
// backwards. Offset is the buffer index of the logical element at all-zero
// coordinates.
type Layout struct {
	Shape   Shape
	Strides []int
	Offset  int
}

// Contiguous returns the dense row-major layout for shape with zero offset.
func Contiguous(shape Shape) Layout {
	return Layout{Shape: shape.Clone(), Strides: shape.ComputeStrides()}
}

// Rank returns the number of axes.
func (l Layout) Rank() int {
	return len(l.Shape)
}

// NumElements returns the logical element count.
func (l Layout) NumElements() int {
	return l.Shape.NumElements()
}

// Clone returns a deep copy of the layout.
func (l Layout) Clone() Layout {
	return Layout{
		Shape:   l.Shape.Clone(),
		Strides: append([]int(nil), l.Strides...),
		Offset:  l.Offset,
	}
}

// IsStandard reports whether the layout is dense row-major. Axes of extent 1
// are ignored, matching how such axes never contribute to an offset.
func (l Layout) IsStandard() bool {
	expected := l.Shape.ComputeStrides()
	for i, dim := range l.Shape {
		if dim != 1 && l.Strides[i] != expected[i] {
			return false
		}
	}
	return true
}

// Span returns the lowest and highest buffer index any element of the layout
// can reach.
func (l Layout) Span() (lo, hi int) {
	lo, hi = l.Offset, l.Offset
	for i, dim := range l.Shape {
		reach := (dim - 1) * l.Strides[i]
		if reach < 0 {
			lo += reach
		} else {
			hi += reach
		}
	}
	return lo, hi
}

// FlatIndex returns the buffer index of the i-th element in row-major
// logical order.
func (l Layout) FlatIndex(i int) int {
	return FlatOffset(i, l.Shape, l.Strides, l.Offset)
}

// Slice returns the view selected by one Slice per axis.
// Semantics follow the usual strided-array rules: negative bounds count from
// the end of the axis, a negative step walks the selected range starting at
// its last element, and the stride of an axis left with at most one element
// is reset to 0.
func (l Layout) Slice(slices ...Slice) (Layout, error) {
	if len(slices) != l.Rank() {
		return Layout{}, fmt.Errorf("%w: got %d slice arguments for rank %d", ErrInvalidSlice, len(slices), l.Rank())
	}

	out := l.Clone()
	for axis, s := range slices {
		start, end, err := s.resolve(l.Shape[axis])
		if err != nil {
			return Layout{}, fmt.Errorf("axis %d: %w", axis, err)
		}

		stride := l.Strides[axis]
		m := end - start
		absStep := s.step
		if absStep < 0 {
			absStep = -absStep
		}
		dim := (m + absStep - 1) / absStep
		if dim == 0 {
			return Layout{}, fmt.Errorf("%w: axis %d selects no elements", ErrInvalidSlice, axis)
		}

		if s.step < 0 {
			out.Offset += (end - 1) * stride
		} else {
			out.Offset += start * stride
		}
		out.Shape[axis] = dim
		if dim <= 1 {
			out.Strides[axis] = 0
		} else {
			out.Strides[axis] = stride * s.step
		}
	}
	return out, nil
}

// ReversedAxes reverses the order of the axes (matrix transpose for rank 2).
func (l Layout) ReversedAxes() Layout {
	out := l.Clone()
	n := len(out.Shape)
	for i := 0; i < n/2; i++ {
		out.Shape[i], out.Shape[n-1-i] = out.Shape[n-1-i], out.Shape[i]
		out.Strides[i], out.Strides[n-1-i] = out.Strides[n-1-i], out.Strides[i]
	}
	return out
}

// Transpose permutes the axes. With no arguments the axes are reversed.
func (l Layout) Transpose(axes ...int) (Layout, error) {
	if len(axes) == 0 {
		return l.ReversedAxes(), nil
	}
	if len(axes) != l.Rank() {
		return Layout{}, fmt.Errorf("%w: got %d axes for rank %d", ErrInvalidAxes, len(axes), l.Rank())
	}

	seen := make([]bool, len(axes))
	out := Layout{
		Shape:   make(Shape, len(axes)),
		Strides: make([]int, len(axes)),
		Offset:  l.Offset,
	}
	for i, ax := range axes {
		if ax < 0 || ax >= len(axes) || seen[ax] {
			return Layout{}, fmt.Errorf("%w: %v", ErrInvalidAxes, axes)
		}
		seen[ax] = true
		out.Shape[i] = l.Shape[ax]
		out.Strides[i] = l.Strides[ax]
	}
	return out, nil
}

// BroadcastTo returns a view with the given shape. Axes of extent 1 and
// missing leading axes get stride 0.
func (l Layout) BroadcastTo(shape Shape) (Layout, error) {
	if err := shape.Validate(); err != nil {
		return Layout{}, err
	}
	if len(shape) < l.Rank() {
		return Layout{}, fmt.Errorf("%w: cannot broadcast %v to lower rank %v", ErrBroadcast, l.Shape, shape)
	}

	out := Layout{
		Shape:   shape.Clone(),
		Strides: make([]int, len(shape)),
		Offset:  l.Offset,
	}
	lead := len(shape) - l.Rank()
	for i := lead; i < len(shape); i++ {
		src := l.Shape[i-lead]
		switch {
		case src == shape[i]:
			out.Strides[i] = l.Strides[i-lead]
		case src == 1:
			out.Strides[i] = 0
		default:
			return Layout{}, fmt.Errorf("%w: cannot broadcast %v to %v", ErrBroadcast, l.Shape, shape)
		}
	}
	return out, nil
}

// BroadcastLayouts broadcasts two layouts to their common shape.
func BroadcastLayouts(a, b Layout) (Layout, Layout, error) {
	shape, _, err := BroadcastShapes(a.Shape, b.Shape)
	if err != nil {
		return Layout{}, Layout{}, err
	}
	la, err := a.BroadcastTo(shape)
	if err != nil {
		return Layout{}, Layout{}, err
	}
	lb, err := b.BroadcastTo(shape)
	if err != nil {
		return Layout{}, Layout{}, err
	}
	return la, lb, nil
}
