package webgpu

// Stats is a snapshot of a context's resource usage.
type Stats struct {
	// Arena
	Regions    int
	ArenaBytes uint64

	// Storage buffers
	TotalAllocatedBytes uint64
	PeakMemoryBytes     uint64
	ActiveBuffers       int64

	// Work
	Pipelines       int
	Dispatches      uint64
	Readbacks       uint64
	BytesUploaded   uint64
	BytesDownloaded uint64

	// Staging pool
	PoolAllocated uint64
	PoolReleased  uint64
	PoolHits      uint64
	PoolMisses    uint64
	PooledBuffers int
}

// Stats returns current usage statistics.
func (c *Context) Stats() Stats {
	c.memoryStats.mu.RLock()
	s := Stats{
		TotalAllocatedBytes: c.memoryStats.totalAllocatedBytes,
		PeakMemoryBytes:     c.memoryStats.peakMemoryBytes,
		ActiveBuffers:       c.memoryStats.activeBuffers,
	}
	c.memoryStats.mu.RUnlock()

	s.Regions = c.arena.Len()
	s.ArenaBytes = c.arena.Bytes()
	s.Dispatches = c.dispatches.Load()
	s.Readbacks = c.readbacks.Load()
	s.BytesUploaded = c.bytesUploaded.Load()
	s.BytesDownloaded = c.bytesDownloaded.Load()

	c.mu.RLock()
	s.Pipelines = len(c.pipelines)
	c.mu.RUnlock()

	if c.staging != nil {
		s.PoolAllocated, s.PoolReleased, s.PoolHits, s.PoolMisses, s.PooledBuffers = c.staging.Stats()
	}
	return s
}

// trackBufferAllocation records a storage buffer allocation.
func (c *Context) trackBufferAllocation(size uint64) {
	c.memoryStats.mu.Lock()
	defer c.memoryStats.mu.Unlock()

	c.memoryStats.totalAllocatedBytes += size
	c.memoryStats.activeBuffers++
	if c.memoryStats.totalAllocatedBytes > c.memoryStats.peakMemoryBytes {
		c.memoryStats.peakMemoryBytes = c.memoryStats.totalAllocatedBytes
	}
}

// trackBufferRelease records a storage buffer release.
func (c *Context) trackBufferRelease(size uint64) {
	c.memoryStats.mu.Lock()
	defer c.memoryStats.mu.Unlock()

	if c.memoryStats.totalAllocatedBytes >= size {
		c.memoryStats.totalAllocatedBytes -= size
	}
	c.memoryStats.activeBuffers--
}
