package alloc

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrOverlap is returned by Validate when two regions share bytes.
var ErrOverlap = errors.New("alloc: overlapping regions")

// Allocator hands out append-only regions of a blob and records them.
type Allocator struct {
	mu sync.Mutex

	// end is the next free offset
	end uint64

	// base is the smallest offset that can be allocated
	base uint64

	// limit, when non-zero, is the blob size regions must fit in
	limit uint64

	allocations []Allocation
	stats       Stats
}

// Allocation is one recorded region.
type Allocation struct {
	Offset uint64
	Size   uint64
	Tag    string
}

// End returns the offset one past the region.
func (a Allocation) End() uint64 {
	return a.Offset + a.Size
}

// Stats contains allocation statistics.
type Stats struct {
	Allocations uint64 // regions handed out or reserved
	Bytes       uint64 // bytes in regions
	Padding     uint64 // bytes skipped for alignment
	Largest     uint64 // largest single region
}

// New creates an allocator whose first region starts at base.
func New(base uint64) *Allocator {
	return &Allocator{end: base, base: base}
}

// Alloc appends a region of size bytes and returns its offset. Zero-sized
// regions are recorded at the current end without advancing it.
func (a *Allocator) Alloc(size uint64, tag string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocLocked(size, tag)
}

// AllocAligned is Alloc with the offset rounded up to a multiple of
// alignment.
func (a *Allocator) AllocAligned(size, alignment uint64, tag string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if alignment > 1 {
		if remainder := a.end % alignment; remainder != 0 {
			padding := alignment - remainder
			a.end += padding
			a.stats.Padding += padding
		}
	}
	return a.allocLocked(size, tag)
}

func (a *Allocator) allocLocked(size uint64, tag string) uint64 {
	offset := a.end
	a.end += size
	a.record(Allocation{Offset: offset, Size: size, Tag: tag})
	return offset
}

func (a *Allocator) record(r Allocation) {
	a.allocations = append(a.allocations, r)
	a.stats.Allocations++
	a.stats.Bytes += r.Size
	if r.Size > a.stats.Largest {
		a.stats.Largest = r.Size
	}
}

// Reserve records a region at a fixed offset, as read back from metadata.
// The end moves past it if needed.
func (a *Allocator) Reserve(offset, size uint64, tag string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.record(Allocation{Offset: offset, Size: size, Tag: tag})
	if end := offset + size; end > a.end {
		a.end = end
	}
}

// SetLimit bounds the blob size checked by Validate. Zero disables the bound.
func (a *Allocator) SetLimit(limit uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.limit = limit
}

// End returns the offset one past the last region, which is the blob size
// when regions were allocated from zero.
func (a *Allocator) End() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.end
}

// Base returns the offset of the first allocatable byte.
func (a *Allocator) Base() uint64 {
	return a.base
}

// Stats returns a copy of the allocation statistics.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Allocations returns a copy of all regions in the order they were recorded.
func (a *Allocator) Allocations() []Allocation {
	a.mu.Lock()
	defer a.mu.Unlock()
	result := make([]Allocation, len(a.allocations))
	copy(result, a.allocations)
	return result
}

// Validate checks that regions start at or after the base, fit inside the
// limit when one is set, and do not overlap.
func (a *Allocator) Validate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, r := range a.allocations {
		if r.Offset < a.base {
			return fmt.Errorf("region %q at %d is before base %d", r.Tag, r.Offset, a.base)
		}
		if r.End() < r.Offset {
			return fmt.Errorf("region %q at %d size %d wraps around", r.Tag, r.Offset, r.Size)
		}
		if a.limit > 0 && r.End() > a.limit {
			return fmt.Errorf("region %q at %d size %d extends past %d", r.Tag, r.Offset, r.Size, a.limit)
		}
	}

	sorted := make([]Allocation, 0, len(a.allocations))
	for _, r := range a.allocations {
		if r.Size > 0 {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Offset < prev.End() {
			return fmt.Errorf("%w: %q [%d, %d) and %q [%d, %d)",
				ErrOverlap, prev.Tag, prev.Offset, prev.End(), cur.Tag, cur.Offset, cur.End())
		}
	}
	return nil
}

// Reset forgets every region and returns the end to the base.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.end = a.base
	a.allocations = nil
	a.stats = Stats{}
}
