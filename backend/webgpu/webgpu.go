// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu keeps strided arrays resident on a GPU and runs elementwise
// arithmetic on them through WebGPU.
//
// WebGPU is a cross-platform compute API that works on:
//   - Windows (D3D12 / Vulkan)
//   - macOS (Metal)
//   - Linux (Vulkan)
//
// Example:
//
//	import (
//	    "github.com/born-ml/gpuarray/backend/webgpu"
//	    "github.com/born-ml/gpuarray/tensor"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    a, _ := webgpu.Upload(gpu, tensor.Full[float32](tensor.Shape{5, 5}, 2))
//	    b, _ := webgpu.Upload(gpu, tensor.Full[float32](tensor.Shape{5, 5}, 3))
//	    sum, _ := a.Add(b).ToHost(context.Background())
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/gpuarray/internal/backend/webgpu"
	"github.com/born-ml/gpuarray/tensor"
	"github.com/cogentcore/webgpu/wgpu"
)

// Context is an acquired GPU device with its buffer arena and pipeline cache.
type Context = internalwebgpu.Context

// Array is a strided view of a GPU-resident buffer.
type Array[T tensor.DType] = internalwebgpu.Array[T]

// Config, Option and Stats describe context settings and usage.
type (
	Config = internalwebgpu.Config
	Option = internalwebgpu.Option
	Stats  = internalwebgpu.Stats
)

// Arena types.
type (
	Arena    = internalwebgpu.Arena
	Addr     = internalwebgpu.Addr
	BufferID = internalwebgpu.BufferID
	Handle   = internalwebgpu.Handle
	Region   = internalwebgpu.Region
)

// Kernel descriptor types.
type (
	Kernel = internalwebgpu.Kernel
	Kind   = internalwebgpu.Kind
	Op     = internalwebgpu.Op
)

// Kernel kinds.
const (
	KindElementwise = internalwebgpu.KindElementwise
	KindScalar      = internalwebgpu.KindScalar
)

// Operators.
const (
	OpAdd = internalwebgpu.OpAdd
	OpSub = internalwebgpu.OpSub
	OpMul = internalwebgpu.OpMul
	OpDiv = internalwebgpu.OpDiv
	OpRem = internalwebgpu.OpRem
	OpPow = internalwebgpu.OpPow
	OpMin = internalwebgpu.OpMin
	OpMax = internalwebgpu.OpMax
)

// Errors.
var (
	ErrNoAdapter      = internalwebgpu.ErrNoAdapter
	ErrReleased       = internalwebgpu.ErrReleased
	ErrForeignContext = internalwebgpu.ErrForeignContext
	ErrUnresolved     = internalwebgpu.ErrUnresolved
	ErrMisaligned     = internalwebgpu.ErrMisaligned
	ErrOutOfBounds    = internalwebgpu.ErrOutOfBounds
	ErrInvalidKernel  = internalwebgpu.ErrInvalidKernel
	ErrTooLarge       = internalwebgpu.ErrTooLarge
	ErrMapFailed      = internalwebgpu.ErrMapFailed
	ErrMapTimeout     = internalwebgpu.ErrMapTimeout
	ErrInvalidConfig  = internalwebgpu.ErrInvalidConfig
)

// Options.
var (
	WithWorkgroupSize   = internalwebgpu.WithWorkgroupSize
	WithPowerPreference = internalwebgpu.WithPowerPreference
	WithMapTimeout      = internalwebgpu.WithMapTimeout
	WithWaitOnDispatch  = internalwebgpu.WithWaitOnDispatch
	WithStagingPool     = internalwebgpu.WithStagingPool
	WithLogger          = internalwebgpu.WithLogger
)

// New acquires the default high-performance GPU.
//
// Call Release when done to free GPU resources. Returns an error wrapping
// ErrNoAdapter if no compatible GPU or native library is available.
func New(opts ...Option) (*Context, error) {
	return internalwebgpu.New(opts...)
}

// DefaultConfig returns the settings New uses without options.
func DefaultConfig() Config {
	return internalwebgpu.DefaultConfig()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Useful for skipping GPU work gracefully:
//
//	if !webgpu.IsAvailable() {
//	    return runOnHost()
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}

// ListAdapters returns the distinct adapters reachable through each power
// preference.
func ListAdapters() ([]*wgpu.AdapterInfo, error) {
	return internalwebgpu.ListAdapters()
}

// Host returns the host-side reference for op, matching the GPU result
// including integer division edge cases.
func Host[T tensor.DType](op Op) func(x, y T) T {
	return internalwebgpu.Host[T](op)
}

// Upload copies a host array to the GPU.
func Upload[T tensor.DType](c *Context, host *tensor.Array[T]) (*Array[T], error) {
	return internalwebgpu.Upload(c, host)
}

// FromSlice uploads row-major data with the given shape.
func FromSlice[T tensor.DType](c *Context, shape tensor.Shape, data []T) (*Array[T], error) {
	return internalwebgpu.FromSlice(c, shape, data)
}

// Full uploads an array filled with value.
func Full[T tensor.DType](c *Context, shape tensor.Shape, value T) (*Array[T], error) {
	return internalwebgpu.Full(c, shape, value)
}

// Zeros uploads a zero-filled array.
func Zeros[T tensor.DType](c *Context, shape tensor.Shape) (*Array[T], error) {
	return internalwebgpu.Zeros[T](c, shape)
}

// Ones uploads an array filled with ones.
func Ones[T tensor.DType](c *Context, shape tensor.Shape) (*Array[T], error) {
	return internalwebgpu.Ones[T](c, shape)
}

// Binary applies op elementwise to a and b with broadcasting.
func Binary[T tensor.DType](op Op, a, b *Array[T]) (*Array[T], error) {
	return internalwebgpu.Binary(op, a, b)
}

// Scalar applies op to every element of a with s as right operand.
func Scalar[T tensor.DType](op Op, a *Array[T], s T) (*Array[T], error) {
	return internalwebgpu.Scalar(op, a, s)
}
