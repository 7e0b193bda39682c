package webgpu

import (
	"fmt"

	"github.com/born-ml/gpuarray/internal/tensor"
)

// Upload copies a host array to a new device buffer and returns a dense
// row-major view of it. Elements are written in the host array's logical
// order, so strided host views upload as their logical contents.
func Upload[T tensor.DType](c *Context, host *tensor.Array[T]) (*Array[T], error) {
	if err := c.checkLive(); err != nil {
		return nil, err
	}

	values := host.Values()
	buffer, err := c.CreateStorageBuffer(encode(values))
	if err != nil {
		return nil, err
	}

	h, addr, err := c.arena.Allocate(buffer, len(values), tensor.DataTypeOf[T]())
	if err != nil {
		c.releaseBuffer(buffer)
		return nil, err
	}
	c.log.Debug("webgpu: upload",
		"shape", []int(host.Shape()),
		"dtype", tensor.DataTypeOf[T]().String(),
		"addr", fmt.Sprintf("%#x", uint64(addr)))

	return &Array[T]{ctx: c, id: h.Buffer, layout: tensor.Contiguous(host.Shape())}, nil
}

// FromSlice uploads row-major data with the given shape.
func FromSlice[T tensor.DType](c *Context, shape tensor.Shape, data []T) (*Array[T], error) {
	host, err := tensor.New(shape, data)
	if err != nil {
		return nil, err
	}
	return Upload(c, host)
}

// Full uploads an array filled with value.
func Full[T tensor.DType](c *Context, shape tensor.Shape, value T) (*Array[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return Upload(c, tensor.Full(shape, value))
}

// Zeros uploads a zero-filled array.
func Zeros[T tensor.DType](c *Context, shape tensor.Shape) (*Array[T], error) {
	return Full[T](c, shape, 0)
}

// Ones uploads an array filled with ones.
func Ones[T tensor.DType](c *Context, shape tensor.Shape) (*Array[T], error) {
	return Full[T](c, shape, 1)
}
