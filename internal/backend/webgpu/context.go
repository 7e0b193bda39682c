// Package webgpu keeps strided arrays resident on a GPU and runs elementwise
// arithmetic on them with generated WGSL compute kernels.
//
// A Context owns the device, a pipeline cache and the buffer Arena that
// gives every device buffer a synthetic address range. Arrays are views
// (buffer id + layout) into arena buffers, so slicing, transposing and
// broadcasting never touch the device.
package webgpu

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	stagingUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
)

// Context is an acquired GPU device together with everything needed to run
// kernels on it. A Context is safe for concurrent use, but operations from
// different goroutines are not ordered relative to each other.
type Context struct {
	cfg Config
	log *slog.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	adapterInfo *wgpu.AdapterInfo

	// Shader and pipeline cache, keyed by Kernel.Key.
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	arena   *Arena
	staging *BufferPool

	released atomic.Bool

	dispatches      atomic.Uint64
	readbacks       atomic.Uint64
	bytesUploaded   atomic.Uint64
	bytesDownloaded atomic.Uint64

	memoryStats struct {
		totalAllocatedBytes uint64
		peakMemoryBytes     uint64
		activeBuffers       int64
		mu                  sync.RWMutex
	}
}

// New acquires the default adapter, device and queue.
// Returns an error wrapping ErrNoAdapter if WebGPU is not available.
func New(opts ...Option) (c *Context, err error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = fmt.Errorf("%w: native library not available: %v", ErrNoAdapter, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: cfg.PowerPreference,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, adapterErr)
	}

	adapterInfo := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: failed to request device: %w", ErrNoAdapter, deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: failed to get queue", ErrNoAdapter)
	}

	c = &Context{
		cfg:         cfg,
		log:         cfg.Logger,
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		adapterInfo: &adapterInfo,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		arena:       NewArena(),
		staging:     NewBufferPool(device),
	}
	c.log.Debug("webgpu: device acquired",
		"adapter", adapterInfo.Name,
		"vendor", adapterInfo.VendorName,
		"workgroup_size", cfg.WorkgroupSize)
	return c, nil
}

// Release releases the pipelines, pooled staging buffers, every arena buffer
// and the device. Further use of the context or its arrays returns
// ErrReleased. Release is idempotent.
func (c *Context) Release() {
	if c.released.Swap(true) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.staging != nil {
		c.staging.Clear()
	}

	for _, p := range c.pipelines {
		p.Release()
	}
	c.pipelines = nil

	for _, s := range c.shaders {
		s.Release()
	}
	c.shaders = nil

	c.arena.releaseBuffers(c.releaseBuffer)

	if c.queue != nil {
		c.queue.Release()
		c.queue = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
	c.log.Debug("webgpu: context released", "regions", c.arena.Len())
}

func (c *Context) checkLive() error {
	if c == nil || c.released.Load() {
		return ErrReleased
	}
	return nil
}

// Name returns a human-readable device name.
func (c *Context) Name() string {
	if c.adapterInfo != nil {
		return fmt.Sprintf("WebGPU (%s %s)", c.adapterInfo.Name, c.adapterInfo.VendorName)
	}
	return "WebGPU"
}

// AdapterInfo returns information about the GPU adapter.
func (c *Context) AdapterInfo() *wgpu.AdapterInfo {
	return c.adapterInfo
}

// WorkgroupSize returns the workgroup size used by generated kernels.
func (c *Context) WorkgroupSize() int {
	return c.cfg.WorkgroupSize
}

// Config returns the settings the context was created with.
func (c *Context) Config() Config {
	return c.cfg
}

// Arena returns the context's buffer arena.
func (c *Context) Arena() *Arena {
	return c.arena
}

// CreateStorageBuffer creates a Storage|CopySrc|CopyDst buffer initialised
// with data. The size is rounded up to a multiple of 4 bytes.
func (c *Context) CreateStorageBuffer(data []byte) (*wgpu.Buffer, error) {
	if err := c.checkLive(); err != nil {
		return nil, err
	}
	size := alignSize(uint64(len(data)))

	buffer, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            storageUsage,
		Size:             size,
		MappedAtCreation: true,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create storage buffer: %w", err)
	}
	copy(buffer.GetMappedRange(0, uint(size)), data)
	buffer.Unmap()

	c.trackBufferAllocation(size)
	c.bytesUploaded.Add(uint64(len(data)))
	return buffer, nil
}

// CreateStorageBufferSized creates an uninitialised storage buffer.
func (c *Context) CreateStorageBufferSized(size uint64) (*wgpu.Buffer, error) {
	if err := c.checkLive(); err != nil {
		return nil, err
	}
	size = alignSize(size)

	buffer, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: storageUsage,
		Size:  size,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create storage buffer: %w", err)
	}
	c.trackBufferAllocation(size)
	return buffer, nil
}

// CreateStagingBuffer creates a MapRead|CopyDst buffer for readback.
func (c *Context) CreateStagingBuffer(size uint64) (*wgpu.Buffer, error) {
	if err := c.checkLive(); err != nil {
		return nil, err
	}
	buffer, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "staging",
		Usage: stagingUsage,
		Size:  alignSize(size),
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create staging buffer: %w", err)
	}
	return buffer, nil
}

// releaseBuffer releases a buffer created by CreateStorageBuffer* that was
// never registered in the arena.
func (c *Context) releaseBuffer(buffer *wgpu.Buffer) {
	size := buffer.GetSize()
	buffer.Release()
	c.trackBufferRelease(size)
}

// alignSize rounds size up to the 4-byte copy alignment, with a 4-byte minimum.
func alignSize(size uint64) uint64 {
	if size < 4 {
		return 4
	}
	return (size + 3) &^ 3
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// ListAdapters returns information about the available GPU adapters.
// WebGPU has no enumeration API, so this is the default adapter for each
// power preference, deduplicated by name.
func ListAdapters() (adapters []*wgpu.AdapterInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			adapters = nil
			err = fmt.Errorf("%w: native library not available: %v", ErrNoAdapter, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	seen := make(map[string]bool)
	for _, pref := range []wgpu.PowerPreference{
		wgpu.PowerPreferenceHighPerformance,
		wgpu.PowerPreferenceLowPower,
	} {
		adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{PowerPreference: pref})
		if adapterErr != nil {
			continue
		}
		info := adapter.GetInfo()
		adapter.Release()
		if seen[info.Name] {
			continue
		}
		seen[info.Name] = true
		adapters = append(adapters, &info)
	}
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}
	return adapters, nil
}
