package webgpu

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/born-ml/gpuarray/internal/tensor"
	"github.com/cogentcore/webgpu/wgpu"
)

// readBuffer copies the first size bytes of src back to host memory.
//
// Storage buffers cannot be mapped, so the data goes through a staging
// buffer: copy, submit, request an asynchronous map whose callback signals a
// one-shot channel, then poll the device until the signal arrives or ctx is
// done. When ctx has no deadline, Config.MapTimeout applies.
func (c *Context) readBuffer(ctx context.Context, src *wgpu.Buffer, size uint64) ([]byte, error) {
	if err := c.checkLive(); err != nil {
		return nil, err
	}
	size = alignSize(size)

	staging, err := c.acquireStaging(size)
	if err != nil {
		return nil, err
	}

	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		staging.Release()
		return nil, fmt.Errorf("webgpu: create command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmdBuffer, err := encoder.Finish(nil)
	encoder.Release()
	if err != nil {
		staging.Release()
		return nil, fmt.Errorf("webgpu: finish readback commands: %w", err)
	}
	c.queue.Submit(cmdBuffer)
	cmdBuffer.Release()

	done := make(chan wgpu.BufferMapAsyncStatus, 1)
	staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		done <- status
	})

	if _, ok := ctx.Deadline(); !ok && c.cfg.MapTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.MapTimeout)
		defer cancel()
	}

	status, err := waitForMap(ctx, done, func() { c.device.Poll(true, nil) })
	if err != nil {
		// The map request may still be pending; the buffer cannot go back
		// to the pool.
		staging.Release()
		c.log.Warn("webgpu: readback timed out", "bytes", size, "error", err)
		return nil, err
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		staging.Release()
		c.log.Warn("webgpu: readback map failed", "bytes", size, "status", status)
		return nil, fmt.Errorf("%w: status %v", ErrMapFailed, status)
	}

	result := make([]byte, size)
	copy(result, staging.GetMappedRange(0, uint(size)))
	staging.Unmap()
	c.releaseStaging(staging)

	c.readbacks.Add(1)
	c.bytesDownloaded.Add(size)
	c.log.Debug("webgpu: readback", "bytes", size)
	return result, nil
}

// waitForMap calls poll until the mapping callback has reported a status or
// ctx is done.
func waitForMap(ctx context.Context, done <-chan wgpu.BufferMapAsyncStatus, poll func()) (wgpu.BufferMapAsyncStatus, error) {
	for {
		select {
		case status := <-done:
			return status, nil
		case <-ctx.Done():
			var pending wgpu.BufferMapAsyncStatus
			return pending, fmt.Errorf("%w: %w", ErrMapTimeout, ctx.Err())
		default:
		}
		poll()
	}
}

func (c *Context) acquireStaging(size uint64) (*wgpu.Buffer, error) {
	if !c.cfg.StagingPool {
		return c.CreateStagingBuffer(size)
	}
	buffer, err := c.staging.Acquire(size, stagingUsage)
	if err != nil {
		return nil, fmt.Errorf("webgpu: acquire staging buffer: %w", err)
	}
	return buffer, nil
}

func (c *Context) releaseStaging(buffer *wgpu.Buffer) {
	if !c.cfg.StagingPool {
		buffer.Release()
		return
	}
	c.staging.Release(buffer, buffer.GetSize(), stagingUsage)
}

// encode reinterprets values as their in-memory bytes.
func encode[T tensor.DType](values []T) []byte {
	if len(values) == 0 {
		return nil
	}
	//nolint:gosec // G103: element types are 4-byte numeric, no pointers.
	return unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), len(values)*int(unsafe.Sizeof(values[0])))
}

// decode copies the first n elements out of raw device bytes.
func decode[T tensor.DType](raw []byte, n int) ([]T, error) {
	out := make([]T, n)
	if n == 0 {
		return out, nil
	}
	need := n * int(unsafe.Sizeof(out[0]))
	if len(raw) < need {
		return nil, fmt.Errorf("webgpu: decode: %d bytes for %d elements", len(raw), n)
	}
	copy(encode(out), raw[:need])
	return out, nil
}
