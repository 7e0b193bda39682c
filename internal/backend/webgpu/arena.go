package webgpu

import (
	"fmt"
	"sort"
	"sync"

	"github.com/born-ml/gpuarray/internal/tensor"
	"github.com/cogentcore/webgpu/wgpu"
)

// Addr is a synthetic device address. It is never dereferenced; it only
// names a byte position inside one arena region so that views of the same
// buffer can be compared and resolved like host pointers.
type Addr uint64

// BufferID identifies a region registered with an Arena.
type BufferID uint32

// Handle references one element of a registered buffer.
type Handle struct {
	Buffer BufferID
	Offset int // elements from the start of the region
}

// Region is a buffer registered in the arena, covering [Start, End).
type Region struct {
	ID     BufferID
	Start  Addr
	End    Addr
	Buffer *wgpu.Buffer
	Len    int
	DType  tensor.DataType
}

// Contains reports whether addr falls inside the region.
func (r Region) Contains(addr Addr) bool {
	return addr >= r.Start && addr < r.End
}

// Arena maps synthetic address ranges to device buffers. It is append-only:
// regions are never removed or reused while the owning Context lives, so an
// address stays valid for the Context's lifetime.
type Arena struct {
	mu      sync.RWMutex
	regions []Region // ascending Start; regions[i].ID == i
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Allocate registers buffer as holding count elements of dtype and returns a
// handle to its first element together with the element's address.
//
// The first region starts at the element alignment so that address 0 never
// resolves; later regions start at the first aligned address at or after the
// previous region's end.
func (a *Arena) Allocate(buffer *wgpu.Buffer, count int, dtype tensor.DataType) (Handle, Addr, error) {
	if count <= 0 {
		return Handle{}, 0, fmt.Errorf("%w: arena cannot register %d elements", tensor.ErrInvalidShape, count)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	align := Addr(dtype.Align())
	start := align
	if n := len(a.regions); n > 0 {
		start = alignUp(a.regions[n-1].End, align)
	}

	id := BufferID(len(a.regions))
	a.regions = append(a.regions, Region{
		ID:     id,
		Start:  start,
		End:    start + Addr(count*dtype.Size()),
		Buffer: buffer,
		Len:    count,
		DType:  dtype,
	})
	return Handle{Buffer: id}, start, nil
}

// Region returns the region registered under id.
func (a *Arena) Region(id BufferID) (Region, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if int(id) >= len(a.regions) {
		return Region{}, fmt.Errorf("%w: buffer id %d", ErrUnresolved, id)
	}
	return a.regions[id], nil
}

// Resolve converts an address into a handle.
func (a *Arena) Resolve(addr Addr) (Handle, error) {
	r, err := a.find(addr)
	if err != nil {
		return Handle{}, err
	}
	size := Addr(r.DType.Size())
	delta := addr - r.Start
	if delta%size != 0 {
		return Handle{}, fmt.Errorf("%w: %#x is %d bytes into an element of region %d", ErrMisaligned, uint64(addr), delta%size, r.ID)
	}
	return Handle{Buffer: r.ID, Offset: int(delta / size)}, nil
}

// ResolveBuffer returns the buffer whose region contains addr.
func (a *Arena) ResolveBuffer(addr Addr) (*wgpu.Buffer, error) {
	r, err := a.find(addr)
	if err != nil {
		return nil, err
	}
	return r.Buffer, nil
}

// ResolveOffset returns the element offset of addr within its region.
func (a *Arena) ResolveOffset(addr Addr) (int, error) {
	h, err := a.Resolve(addr)
	if err != nil {
		return 0, err
	}
	return h.Offset, nil
}

// Addr returns the synthetic address of the element h refers to.
func (a *Arena) Addr(h Handle) (Addr, error) {
	r, err := a.Region(h.Buffer)
	if err != nil {
		return 0, err
	}
	if h.Offset < 0 || h.Offset >= r.Len {
		return 0, fmt.Errorf("%w: offset %d in region %d of %d elements", ErrOutOfBounds, h.Offset, r.ID, r.Len)
	}
	return r.Start + Addr(h.Offset*r.DType.Size()), nil
}

// CheckSpan verifies that every element a strided layout based at h can
// reach lies inside h's region. The layout's own Offset is ignored in favour
// of h.Offset.
func (a *Arena) CheckSpan(h Handle, layout tensor.Layout) error {
	r, err := a.Region(h.Buffer)
	if err != nil {
		return err
	}
	layout.Offset = h.Offset
	lo, hi := layout.Span()
	if lo < 0 || hi >= r.Len {
		return fmt.Errorf("%w: elements [%d, %d] of region %d with %d elements", ErrOutOfBounds, lo, hi, r.ID, r.Len)
	}
	return nil
}

// Regions returns a snapshot of all regions in address order.
func (a *Arena) Regions() []Region {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Region(nil), a.regions...)
}

// Len returns the number of registered regions.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.regions)
}

// Bytes returns the total payload registered, excluding alignment gaps.
func (a *Arena) Bytes() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var total uint64
	for _, r := range a.regions {
		total += uint64(r.End - r.Start)
	}
	return total
}

func (a *Arena) find(addr Addr) (Region, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	i := sort.Search(len(a.regions), func(i int) bool {
		return a.regions[i].End > addr
	})
	if i == len(a.regions) || !a.regions[i].Contains(addr) {
		return Region{}, fmt.Errorf("%w: %#x", ErrUnresolved, uint64(addr))
	}
	return a.regions[i], nil
}

// releaseBuffers hands every registered buffer to release and forgets it.
// Regions stay in place so that addresses handed out earlier still resolve
// to an id, never to a different buffer.
func (a *Arena) releaseBuffers(release func(*wgpu.Buffer)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.regions {
		if a.regions[i].Buffer != nil {
			release(a.regions[i].Buffer)
			a.regions[i].Buffer = nil
		}
	}
}

func alignUp(addr, align Addr) Addr {
	return (addr + align - 1) / align * align
}
