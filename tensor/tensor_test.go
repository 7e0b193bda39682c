package tensor_test

import (
	"testing"

	"github.com/born-ml/gpuarray/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicSliceAndBroadcast(t *testing.T) {
	a, err := tensor.New(tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	col, err := a.Slice(tensor.All(), tensor.Index(-1))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 1}, col.Shape())

	sum, err := tensor.Add(a, col)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5, 6, 10, 11, 12}, sum.Values())

	_, err = tensor.Add(a, tensor.Ones[float32](tensor.Shape{4}))
	require.ErrorIs(t, err, tensor.ErrBroadcast)
}

func TestPublicDataTypes(t *testing.T) {
	assert.Equal(t, tensor.Float32, tensor.Zeros[float32](tensor.Shape{1}).DType())
	assert.Equal(t, tensor.Int32, tensor.Zeros[int32](tensor.Shape{1}).DType())
	assert.Equal(t, tensor.Uint32, tensor.Zeros[uint32](tensor.Shape{1}).DType())
	assert.Equal(t, "f32", tensor.Float32.WGSL())
}
