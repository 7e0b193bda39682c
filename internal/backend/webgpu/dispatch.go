package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/born-ml/gpuarray/internal/tensor"
	"github.com/cogentcore/webgpu/wgpu"
)

// maxWorkgroupsPerDimension is the WebGPU default limit for
// maxComputeWorkgroupsPerDimension.
const maxWorkgroupsPerDimension = 65535

// Binary applies op elementwise to a and b after broadcasting them to a
// common shape. The result is a new dense row-major array.
func Binary[T tensor.DType](op Op, a, b *Array[T]) (*Array[T], error) {
	if a.ctx != b.ctx {
		return nil, ErrForeignContext
	}
	c := a.ctx
	if err := c.checkLive(); err != nil {
		return nil, err
	}

	la, lb, err := tensor.BroadcastLayouts(a.layout, b.layout)
	if err != nil {
		return nil, err
	}
	shape := la.Shape
	la, lb = promoteScalar(la), promoteScalar(lb)

	lhs, err := c.operand(a.id, la)
	if err != nil {
		return nil, fmt.Errorf("lhs: %w", err)
	}
	rhs, err := c.operand(b.id, lb)
	if err != nil {
		return nil, fmt.Errorf("rhs: %w", err)
	}

	kernel := Kernel{
		Kind:          KindElementwise,
		Op:            op,
		DType:         tensor.DataTypeOf[T](),
		Rank:          la.Rank(),
		LHSOffset:     la.Offset,
		RHSOffset:     lb.Offset,
		WorkgroupSize: c.cfg.WorkgroupSize,
	}
	rhsStrides, err := encodeStrides(lb.Strides)
	if err != nil {
		return nil, err
	}

	id, err := c.dispatch(kernel, la, lhs, rhsStrides, rhs)
	if err != nil {
		return nil, err
	}
	return &Array[T]{ctx: c, id: id, layout: tensor.Contiguous(shape)}, nil
}

// Scalar applies op to every element of a with s as the right operand.
func Scalar[T tensor.DType](op Op, a *Array[T], s T) (*Array[T], error) {
	c := a.ctx
	if err := c.checkLive(); err != nil {
		return nil, err
	}

	la := promoteScalar(a.layout)
	lhs, err := c.operand(a.id, la)
	if err != nil {
		return nil, fmt.Errorf("lhs: %w", err)
	}

	kernel := Kernel{
		Kind:          KindScalar,
		Op:            op,
		DType:         tensor.DataTypeOf[T](),
		Rank:          la.Rank(),
		LHSOffset:     la.Offset,
		WorkgroupSize: c.cfg.WorkgroupSize,
	}

	id, err := c.dispatch(kernel, la, lhs, encode([]T{s}), nil)
	if err != nil {
		return nil, err
	}
	return &Array[T]{ctx: c, id: id, layout: tensor.Contiguous(a.layout.Shape)}, nil
}

// promoteScalar turns a rank-0 layout into rank 1 with one element and stride
// 0, since kernels need at least one axis.
func promoteScalar(l tensor.Layout) tensor.Layout {
	if l.Rank() > 0 {
		return l
	}
	return tensor.Layout{Shape: tensor.Shape{1}, Strides: []int{0}, Offset: l.Offset}
}

// operand resolves a view's buffer and checks that its layout stays inside
// the region.
func (c *Context) operand(id BufferID, layout tensor.Layout) (*wgpu.Buffer, error) {
	h := Handle{Buffer: id, Offset: layout.Offset}
	if err := c.arena.CheckSpan(h, layout); err != nil {
		return nil, err
	}
	region, err := c.arena.Region(id)
	if err != nil {
		return nil, err
	}
	if region.Buffer == nil {
		return nil, ErrReleased
	}
	return region.Buffer, nil
}

// dispatch runs one kernel over the logical shape of lhs and registers the
// result buffer in the arena. For scalar kernels rhsAux holds the scalar
// bytes and rhs is nil; for elementwise kernels rhsAux holds rhs strides.
func (c *Context) dispatch(kernel Kernel, lhsLayout tensor.Layout, lhs *wgpu.Buffer, rhsAux []byte, rhs *wgpu.Buffer) (BufferID, error) {
	n := lhsLayout.NumElements()
	gx, gy, err := gridFor(n, kernel.WorkgroupSize)
	if err != nil {
		return 0, err
	}

	shapeBytes, err := encodeShape(lhsLayout.Shape)
	if err != nil {
		return 0, err
	}
	lhsStrides, err := encodeStrides(lhsLayout.Strides)
	if err != nil {
		return 0, err
	}

	pipeline, err := c.pipelineFor(kernel)
	if err != nil {
		return 0, err
	}

	aux := make([]*wgpu.Buffer, 0, 3)
	defer func() {
		for _, buf := range aux {
			c.releaseBuffer(buf)
		}
	}()
	for _, data := range [][]byte{shapeBytes, lhsStrides, rhsAux} {
		buf, err := c.CreateStorageBuffer(data)
		if err != nil {
			return 0, err
		}
		aux = append(aux, buf)
	}

	result, err := c.CreateStorageBufferSized(uint64(n * kernel.DType.Size()))
	if err != nil {
		return 0, err
	}

	entries := []wgpu.BindGroupEntry{
		bufferEntry(0, aux[0]),
		bufferEntry(1, aux[1]),
		bufferEntry(2, lhs),
		bufferEntry(3, aux[2]),
	}
	if kernel.Kind == KindElementwise {
		entries = append(entries, bufferEntry(4, rhs), bufferEntry(5, result))
	} else {
		entries = append(entries, bufferEntry(4, result))
	}

	if err := c.submit(kernel, pipeline, entries, gx, gy); err != nil {
		c.releaseBuffer(result)
		return 0, err
	}

	h, _, err := c.arena.Allocate(result, n, kernel.DType)
	if err != nil {
		c.releaseBuffer(result)
		return 0, err
	}

	c.dispatches.Add(1)
	c.log.Debug("webgpu: dispatch",
		"op", kernel.Op.String(),
		"kind", kernel.Kind.String(),
		"elements", n,
		"workgroups", gx*gy)
	return h.Buffer, nil
}

// submit records one compute pass and submits it. With WaitOnDispatch the
// device is polled until the queue is empty.
func (c *Context) submit(kernel Kernel, pipeline *wgpu.ComputePipeline, entries []wgpu.BindGroupEntry, gx, gy int) error {
	layout := pipeline.GetBindGroupLayout(0)
	defer layout.Release()

	bindGroup, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   kernel.Key(),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("webgpu: create bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("webgpu: create command encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	//nolint:gosec // G115: bounded by maxWorkgroupsPerDimension.
	pass.DispatchWorkgroups(uint32(gx), uint32(gy), 1)
	pass.End()

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("webgpu: finish compute commands: %w", err)
	}
	c.queue.Submit(cmdBuffer)
	cmdBuffer.Release()

	if c.cfg.WaitOnDispatch {
		c.device.Poll(true, nil)
	}
	return nil
}

// pipelineFor returns the cached pipeline for kernel, compiling it on first use.
func (c *Context) pipelineFor(kernel Kernel) (*wgpu.ComputePipeline, error) {
	key := kernel.Key()

	c.mu.RLock()
	pipeline, ok := c.pipelines[key]
	c.mu.RUnlock()
	if ok {
		return pipeline, nil
	}

	code, err := kernel.Source()
	if err != nil {
		return nil, err
	}
	shader, err := c.compileShader(key, code)
	if err != nil {
		return nil, err
	}
	return c.getOrCreatePipeline(key, shader)
}

// compileShader compiles WGSL code into a ShaderModule cached under name.
func (c *Context) compileShader(name, code string) (*wgpu.ShaderModule, error) {
	c.mu.RLock()
	if shader, exists := c.shaders[name]; exists {
		c.mu.RUnlock()
		return shader, nil
	}
	c.mu.RUnlock()

	shader, err := c.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: compile %s: %w", name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, exists := c.shaders[name]; exists {
		shader.Release()
		return existing, nil
	}
	c.shaders[name] = shader
	c.log.Debug("webgpu: shader compiled", "kernel", name)
	return shader, nil
}

// getOrCreatePipeline returns a cached ComputePipeline or creates one with an
// automatic layout.
func (c *Context) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) (*wgpu.ComputePipeline, error) {
	c.mu.RLock()
	if pipeline, exists := c.pipelines[name]; exists {
		c.mu.RUnlock()
		return pipeline, nil
	}
	c.mu.RUnlock()

	pipeline, err := c.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: name,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create pipeline %s: %w", name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, exists := c.pipelines[name]; exists {
		pipeline.Release()
		return existing, nil
	}
	c.pipelines[name] = pipeline
	return pipeline, nil
}

// gridFor returns the x/y workgroup counts covering n invocations. x fills up
// to the per-dimension limit before y grows; the shader folds y back into a
// linear id, which must fit in u32 for every launched invocation.
func gridFor(n, workgroupSize int) (gx, gy int, err error) {
	if n <= 0 {
		return 0, 0, fmt.Errorf("%w: dispatch over %d elements", tensor.ErrInvalidShape, n)
	}
	workgroups := (n + workgroupSize - 1) / workgroupSize
	gx = min(workgroups, maxWorkgroupsPerDimension)
	gy = (workgroups + gx - 1) / gx
	if gy > maxWorkgroupsPerDimension || uint64(gx)*uint64(gy)*uint64(workgroupSize) > math.MaxUint32 {
		return 0, 0, fmt.Errorf("%w: %d elements need %d workgroups", ErrTooLarge, n, workgroups)
	}
	return gx, gy, nil
}

func bufferEntry(binding uint32, buffer *wgpu.Buffer) wgpu.BindGroupEntry {
	return wgpu.BindGroupEntry{Binding: binding, Buffer: buffer, Offset: 0, Size: buffer.GetSize()}
}

// encodeShape packs extents as little-endian u32.
func encodeShape(shape tensor.Shape) ([]byte, error) {
	out := make([]byte, 4*len(shape))
	for i, dim := range shape {
		if dim < 0 || uint64(dim) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: extent %d on axis %d", ErrTooLarge, dim, i)
		}
		binary.LittleEndian.PutUint32(out[4*i:], uint32(dim))
	}
	return out, nil
}

// encodeStrides packs signed strides as little-endian i32.
func encodeStrides(strides []int) ([]byte, error) {
	out := make([]byte, 4*len(strides))
	for i, s := range strides {
		if s < math.MinInt32 || s > math.MaxInt32 {
			return nil, fmt.Errorf("%w: stride %d on axis %d", ErrTooLarge, s, i)
		}
		binary.LittleEndian.PutUint32(out[4*i:], uint32(int32(s)))
	}
	return out, nil
}
