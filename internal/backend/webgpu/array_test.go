package webgpu

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/born-ml/gpuarray/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func newTestContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	if !IsAvailable() {
		t.Skip("WebGPU not available")
	}

	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	c, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(c.Release)
	return c
}

func upload[T tensor.DType](t *testing.T, c *Context, host *tensor.Array[T]) *Array[T] {
	t.Helper()
	a, err := Upload(c, host)
	require.NoError(t, err)
	return a
}

func download[T tensor.DType](t *testing.T, a *Array[T]) *tensor.Array[T] {
	t.Helper()
	host, err := a.ToHost(context.Background())
	require.NoError(t, err)
	return host
}

func hostCube(t *testing.T) *tensor.Array[float32] {
	t.Helper()
	a, err := tensor.New(tensor.Shape{2, 2, 3}, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	require.NoError(t, err)
	return a
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

func TestAddFilled(t *testing.T) {
	c := newTestContext(t)

	a := upload(t, c, tensor.Full[float32](tensor.Shape{5, 5}, 2))
	b := upload(t, c, tensor.Full[float32](tensor.Shape{5, 5}, 3))

	got := download(t, a.Add(b))
	assert.True(t, got.Equal(tensor.Full[float32](tensor.Shape{5, 5}, 5)), got.String())
}

func TestTransposedViewDownload(t *testing.T) {
	c := newTestContext(t)

	host, err := tensor.Range[float32](0, 10, 1).Reshape(tensor.Shape{2, 5})
	require.NoError(t, err)
	a := upload(t, c, host)

	at := a.ReversedAxes()
	assert.Equal(t, tensor.Shape{5, 2}, at.Shape())
	assert.Equal(t, []int{1, 5}, at.Strides())

	got := download(t, at)
	assert.True(t, got.Equal(host.ReversedAxes()), got.String())

	rev, err := tensor.Range[float32](9, -1, -1).Reshape(tensor.Shape{2, 5})
	require.NoError(t, err)
	bt := upload(t, c, rev).ReversedAxes()

	sum := download(t, at.Add(bt))
	assert.True(t, sum.Equal(tensor.Full[float32](tensor.Shape{5, 2}, 9)), sum.String())
}

func TestSlicedViewsAdd(t *testing.T) {
	c := newTestContext(t)
	host := hostCube(t)
	a := upload(t, c, host)

	row, err := a.Slice(tensor.All(), tensor.Between(0, 1), tensor.All())
	require.NoError(t, err)
	rev, err := a.Slice(tensor.All(), tensor.From(-1), tensor.All().By(-1))
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{2, 1, 3}, rev.Shape())
	assert.Equal(t, []int{6, 0, -1}, rev.Strides())
	assert.Equal(t, Addr(5*4), rev.Ptr()-a.Ptr())

	assert.Equal(t, []float32{6, 5, 4, 12, 11, 10}, download(t, rev).Values())

	hostRow, err := host.Slice(tensor.All(), tensor.Between(0, 1), tensor.All())
	require.NoError(t, err)
	hostRev, err := host.Slice(tensor.All(), tensor.From(-1), tensor.All().By(-1))
	require.NoError(t, err)
	want, err := tensor.Add(hostRow, hostRev)
	require.NoError(t, err)

	got := download(t, row.Add(rev))
	assert.Equal(t, tensor.Shape{2, 1, 3}, got.Shape())
	assert.Equal(t, want.Values(), got.Values())
	assert.Equal(t, []float32{7, 7, 7, 19, 19, 19}, got.Values())
}

func TestRoundTripStridedViews(t *testing.T) {
	c := newTestContext(t)
	host := hostCube(t)
	a := upload(t, c, host)

	views := []struct {
		name   string
		slices []tensor.Slice
	}{
		{"all", []tensor.Slice{tensor.All(), tensor.All(), tensor.All()}},
		{"every other column", []tensor.Slice{tensor.All(), tensor.All(), tensor.All().By(2)}},
		{"reversed planes", []tensor.Slice{tensor.All().By(-1), tensor.All(), tensor.All()}},
		{"single element", []tensor.Slice{tensor.Index(1), tensor.Index(0), tensor.Index(-1)}},
	}
	for _, v := range views {
		t.Run(v.name, func(t *testing.T) {
			gpuView, err := a.Slice(v.slices...)
			require.NoError(t, err)
			hostView, err := host.Slice(v.slices...)
			require.NoError(t, err)

			got := download(t, gpuView)
			assert.True(t, got.Equal(hostView), "got %v want %v", got, hostView)
		})
	}

	perm, err := a.Transpose(2, 0, 1)
	require.NoError(t, err)
	hostPerm, err := host.Transpose(2, 0, 1)
	require.NoError(t, err)
	assert.True(t, download(t, perm).Equal(hostPerm))
}

func TestBroadcastBinary(t *testing.T) {
	c := newTestContext(t)

	m, err := tensor.New(tensor.Shape{2, 3}, []int32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	v, err := tensor.New(tensor.Shape{3}, []int32{10, 20, 30})
	require.NoError(t, err)

	got := download(t, upload(t, c, m).Mul(upload(t, c, v)))
	assert.Equal(t, []int32{10, 40, 90, 40, 100, 180}, got.Values())

	col, err := tensor.New(tensor.Shape{2, 1}, []int32{100, 200})
	require.NoError(t, err)
	got = download(t, upload(t, c, m).Sub(upload(t, c, col)))
	assert.Equal(t, []int32{-99, -98, -97, -196, -195, -194}, got.Values())
}

func TestBroadcastMismatchFailsBeforeDispatch(t *testing.T) {
	c := newTestContext(t)

	a := upload(t, c, tensor.Ones[float32](tensor.Shape{3, 4}))
	b := upload(t, c, tensor.Ones[float32](tensor.Shape{3, 5}))
	before := c.Stats()

	_, err := Binary(OpAdd, a, b)
	require.ErrorIs(t, err, tensor.ErrBroadcast)
	assert.Equal(t, before.Dispatches, c.Stats().Dispatches)
	assert.Equal(t, before.Regions, c.Stats().Regions)

	assert.Panics(t, func() { a.Add(b) })
}

func TestScalarOps(t *testing.T) {
	c := newTestContext(t)

	host, err := tensor.New(tensor.Shape{2, 3}, []int32{-7, -1, 0, 1, 7, 9})
	require.NoError(t, err)
	a := upload(t, c, host)

	assert.Equal(t, []int32{-4, 2, 3, 4, 10, 12}, download(t, a.AddScalar(3)).Values())
	assert.Equal(t, []int32{-3, 0, 0, 0, 3, 4}, download(t, a.DivScalar(2)).Values())
	assert.Equal(t, []int32{-1, -1, 0, 1, 1, 1}, download(t, a.RemScalar(2)).Values())
	assert.Equal(t, []int32{-7, -1, 0, 1, 2, 2}, download(t, a.MinScalar(2)).Values())

	// Scalar ops on a reversed view follow the view's logical order.
	rev := a.ReversedAxes()
	assert.Equal(t, []int32{-14, 2, -2, 14, 0, 18}, download(t, rev.MulScalar(2)).Values())
}

func TestRankZero(t *testing.T) {
	c := newTestContext(t)

	s := upload(t, c, tensor.Full[float32](tensor.Shape{}, 4))
	v := upload(t, c, tensor.Range[float32](0, 3, 1))

	sum := download(t, v.Add(s))
	assert.Equal(t, []float32{4, 5, 6}, sum.Values())

	only := download(t, s.MulScalar(2))
	assert.Equal(t, tensor.Shape{}, only.Shape())
	assert.Equal(t, []float32{8}, only.Values())
}

func TestFloatDivPow(t *testing.T) {
	c := newTestContext(t)

	x, err := tensor.New(tensor.Shape{4}, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	y, err := tensor.New(tensor.Shape{4}, []float32{3, 0.5, 2, 0.25})
	require.NoError(t, err)
	a, b := upload(t, c, x), upload(t, c, y)

	for _, op := range []Op{OpDiv, OpPow, OpRem, OpMax} {
		got, err := Binary(op, a, b)
		require.NoError(t, err, op.String())
		want, err := tensor.Apply(x, y, Host[float32](op))
		require.NoError(t, err)

		assert.True(t,
			floats.EqualApprox(toFloat64(download(t, got).Values()), toFloat64(want.Values()), 1e-4),
			op.String())
	}
}

func TestPowRejectsIntegers(t *testing.T) {
	c := newTestContext(t)
	a := upload(t, c, tensor.Ones[int32](tensor.Shape{2}))

	_, err := Scalar(OpPow, a, 2)
	require.ErrorIs(t, err, ErrInvalidKernel)
}

func TestIntegerDivisionByZeroMatchesHost(t *testing.T) {
	c := newTestContext(t)

	x, err := tensor.New(tensor.Shape{3}, []int32{7, -7, 5})
	require.NoError(t, err)
	y, err := tensor.New(tensor.Shape{3}, []int32{0, 0, 2})
	require.NoError(t, err)

	got := download(t, upload(t, c, x).Div(upload(t, c, y)))
	want, err := tensor.Div(x, y)
	require.NoError(t, err)
	assert.Equal(t, want.Values(), got.Values())
}

func TestResultsShareNothingWithInputs(t *testing.T) {
	c := newTestContext(t)

	a := upload(t, c, tensor.Ones[uint32](tensor.Shape{4}))
	b := a.AddScalar(1)

	assert.NotEqual(t, a.Handle().Buffer, b.Handle().Buffer)
	assert.Equal(t, 0, b.Offset())
	assert.True(t, b.IsStandard())
	assert.Equal(t, []uint32{1, 1, 1, 1}, download(t, a).Values())
	assert.Equal(t, []uint32{2, 2, 2, 2}, download(t, b).Values())
}

func TestForeignContextRejected(t *testing.T) {
	// Views only need distinct owners; no device is touched before the check.
	a := &Array[float32]{ctx: &Context{}, layout: tensor.Contiguous(tensor.Shape{2})}
	b := &Array[float32]{ctx: &Context{}, layout: tensor.Contiguous(tensor.Shape{2})}

	_, err := Binary(OpAdd, a, b)
	require.ErrorIs(t, err, ErrForeignContext)
}

func TestReshape(t *testing.T) {
	c := newTestContext(t)
	a := upload(t, c, hostCube(t))

	flat, err := a.Reshape(tensor.Shape{12})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, download(t, flat).Values())

	_, err = a.ReversedAxes().Reshape(tensor.Shape{12})
	require.ErrorIs(t, err, tensor.ErrNotContiguous)
}

func TestIntegerDivRemParity(t *testing.T) {
	c := newTestContext(t)

	x, err := tensor.New(tensor.Shape{8}, []int32{-7, -1, 7, 5, -7, 0, math.MinInt32, math.MinInt32})
	require.NoError(t, err)
	y, err := tensor.New(tensor.Shape{8}, []int32{2, 2, 0, 0, -2, 0, -1, 0})
	require.NoError(t, err)
	a, b := upload(t, c, x), upload(t, c, y)

	div, err := Binary(OpDiv, a, b)
	require.NoError(t, err)
	assert.Equal(t, []int32{-3, 0, 7, 5, 3, 0, math.MinInt32, math.MinInt32}, download(t, div).Values())

	rem, err := Binary(OpRem, a, b)
	require.NoError(t, err)
	assert.Equal(t, []int32{-1, -1, 0, 0, -1, 0, 0, 0}, download(t, rem).Values())

	for _, op := range []Op{OpDiv, OpRem} {
		want, err := tensor.Apply(x, y, Host[int32](op))
		require.NoError(t, err)
		got, err := Binary(op, a, b)
		require.NoError(t, err)
		assert.Equal(t, want.Values(), download(t, got).Values(), op.String())
	}

	u, err := tensor.New(tensor.Shape{3}, []uint32{7, 9, math.MaxUint32})
	require.NoError(t, err)
	ua := upload(t, c, u)
	assert.Equal(t, []uint32{7, 9, math.MaxUint32}, download(t, ua.DivScalar(0)).Values())
	assert.Equal(t, []uint32{0, 0, 0}, download(t, ua.RemScalar(0)).Values())
	assert.Equal(t, []uint32{1, 1, 1}, download(t, ua.RemScalar(2)).Values())
}

func TestPowNegativeBase(t *testing.T) {
	c := newTestContext(t)

	host, err := tensor.New(tensor.Shape{4}, []float32{-2, -3, 2, 0})
	require.NoError(t, err)
	a := upload(t, c, host)

	approx := func(want []float32, got *Array[float32]) {
		t.Helper()
		values := download(t, got).Values()
		assert.True(t, floats.EqualApprox(toFloat64(values), toFloat64(want), 1e-4), "got %v want %v", values, want)
	}
	approx([]float32{4, 9, 4, 0}, a.PowScalar(2))
	approx([]float32{-8, -27, 8, 0}, a.PowScalar(3))
	approx([]float32{1, 1, 1, 1}, a.PowScalar(0))

	want, err := tensor.Apply(host, tensor.Full[float32](tensor.Shape{4}, 3), Host[float32](OpPow))
	require.NoError(t, err)
	approx(want.Values(), a.PowScalar(3))
}

func TestDispatchBeyondOneDimensionOfWorkgroups(t *testing.T) {
	c := newTestContext(t, WithWorkgroupSize(1))

	n := 70000
	a := upload(t, c, tensor.Range[uint32](0, uint32(n), 1))

	values := download(t, a.AddScalar(1)).Values()
	require.Len(t, values, n)
	for i, v := range values {
		if v != uint32(i+1) {
			t.Fatalf("element %d = %d", i, v)
		}
	}
}

func TestBroadcastToInvalidShapeFailsBeforeDispatch(t *testing.T) {
	c := newTestContext(t)
	a := upload(t, c, tensor.Ones[float32](tensor.Shape{1}))

	_, err := a.BroadcastTo(tensor.Shape{-2})
	require.ErrorIs(t, err, tensor.ErrInvalidShape)
	_, err = a.BroadcastTo(tensor.Shape{0, 3})
	require.ErrorIs(t, err, tensor.ErrInvalidShape)
	assert.Zero(t, c.Stats().Dispatches)
}
