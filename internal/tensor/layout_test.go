package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Shape
		want      Shape
		broadcast bool
		wantErr   bool
	}{
		{"same", Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{"column", Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"leading", Shape{5}, Shape{3, 5}, Shape{3, 5}, true, false},
		{"scalar", Shape{}, Shape{2, 2}, Shape{2, 2}, true, false},
		{"both", Shape{4, 1}, Shape{1, 6}, Shape{4, 6}, true, false},
		{"mismatch", Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, broadcast, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBroadcast)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.broadcast, broadcast)
		})
	}
}

func TestShapeValidate(t *testing.T) {
	require.NoError(t, Shape{2, 3}.Validate())
	require.NoError(t, Shape{}.Validate())
	require.ErrorIs(t, Shape{2, 0}.Validate(), ErrInvalidShape)
	require.ErrorIs(t, Shape{-1}.Validate(), ErrInvalidShape)
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
}

func TestUnravel(t *testing.T) {
	shape := Shape{2, 3, 4}
	coords := make([]int, 3)

	Unravel(0, shape, coords)
	assert.Equal(t, []int{0, 0, 0}, coords)

	Unravel(5, shape, coords)
	assert.Equal(t, []int{0, 1, 1}, coords)

	Unravel(23, shape, coords)
	assert.Equal(t, []int{1, 2, 3}, coords)

	// Every linear index round-trips through the row-major strides.
	strides := shape.ComputeStrides()
	for i := 0; i < shape.NumElements(); i++ {
		assert.Equal(t, i, FlatOffset(i, shape, strides, 0))
	}
}

func TestLayoutReversedAxes(t *testing.T) {
	l := Contiguous(Shape{2, 5})
	r := l.ReversedAxes()

	assert.Equal(t, Shape{5, 2}, r.Shape)
	assert.Equal(t, []int{1, 5}, r.Strides)
	assert.False(t, r.IsStandard())
	assert.Equal(t, 5, r.FlatIndex(1))
	assert.Equal(t, 1, r.FlatIndex(2))
}

func TestLayoutSliceRowView(t *testing.T) {
	l := Contiguous(Shape{2, 2, 3})

	v, err := l.Slice(All(), Between(0, 1), All())
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 1, 3}, v.Shape)
	assert.Equal(t, []int{6, 0, 1}, v.Strides)
	assert.Equal(t, 0, v.Offset)
}

func TestLayoutSliceReversed(t *testing.T) {
	l := Contiguous(Shape{2, 2, 3})

	v, err := l.Slice(All(), From(-1), All().By(-1))
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 1, 3}, v.Shape)
	assert.Equal(t, []int{6, 0, -1}, v.Strides)
	assert.Equal(t, 5, v.Offset)

	lo, hi := v.Span()
	assert.Equal(t, 3, lo)
	assert.Equal(t, 11, hi)
}

func TestLayoutSliceStep(t *testing.T) {
	l := Contiguous(Shape{10})

	v, err := l.Slice(Between(1, 8).By(3))
	require.NoError(t, err)
	assert.Equal(t, Shape{3}, v.Shape)
	assert.Equal(t, []int{3}, v.Strides)
	assert.Equal(t, 1, v.Offset)

	v, err = l.Slice(Between(1, 8).By(-3))
	require.NoError(t, err)
	assert.Equal(t, Shape{3}, v.Shape)
	assert.Equal(t, []int{-3}, v.Strides)
	assert.Equal(t, 7, v.Offset)
}

func TestLayoutSliceErrors(t *testing.T) {
	l := Contiguous(Shape{4, 4})

	_, err := l.Slice(All())
	require.ErrorIs(t, err, ErrInvalidSlice)

	_, err = l.Slice(All(), Between(2, 2))
	require.ErrorIs(t, err, ErrInvalidSlice)

	_, err = l.Slice(All(), All().By(0))
	require.ErrorIs(t, err, ErrInvalidSlice)

	_, err = l.Slice(All(), Between(0, 9))
	require.ErrorIs(t, err, ErrInvalidSlice)
}

func TestLayoutTranspose(t *testing.T) {
	l := Contiguous(Shape{2, 3, 4})

	v, err := l.Transpose(2, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, Shape{4, 2, 3}, v.Shape)
	assert.Equal(t, []int{1, 12, 4}, v.Strides)

	_, err = l.Transpose(0, 0, 1)
	require.ErrorIs(t, err, ErrInvalidAxes)

	_, err = l.Transpose(0, 1)
	require.ErrorIs(t, err, ErrInvalidAxes)
}

func TestLayoutBroadcastTo(t *testing.T) {
	l := Contiguous(Shape{3, 1})

	v, err := l.BroadcastTo(Shape{2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0}, v.Strides)

	_, err = l.BroadcastTo(Shape{3, 4, 5})
	require.ErrorIs(t, err, ErrBroadcast)

	_, err = l.BroadcastTo(Shape{3})
	require.ErrorIs(t, err, ErrBroadcast)
}

func TestBroadcastToRejectsNonPositiveExtents(t *testing.T) {
	l := Contiguous(Shape{1})

	for _, shape := range []Shape{{-2}, {0, 3}, {2, 0}} {
		_, err := l.BroadcastTo(shape)
		require.ErrorIs(t, err, ErrInvalidShape, "%v", shape)
	}

	a := Ones[float32](Shape{1})
	_, err := a.BroadcastTo(Shape{-2})
	require.ErrorIs(t, err, ErrInvalidShape)
}
