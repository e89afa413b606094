package handle

import "sync"

// freeSlot is a released (index, epoch) pair available for reuse.
type freeSlot struct {
	index Index
	epoch Epoch
}

// Allocator hands out fresh handles for resource kind K and recycles
// released indices with a bumped epoch so stale handles fail validation
// instead of aliasing the new occupant of the slot.
type Allocator[K Kind] struct {
	mu        sync.Mutex
	free      []freeSlot
	nextIndex Index
	count     uint64
}

// NewAllocator creates an empty allocator for resource kind K.
func NewAllocator[K Kind]() *Allocator[K] {
	return &Allocator[K]{free: make([]freeSlot, 0, 16)}
}

// Alloc returns a handle never seen before, or a recycled index with its
// epoch incremented. Epoch starts at 1 so the zero Handle is always invalid.
func (a *Allocator[K]) Alloc() Handle[K] {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.count++

	if n := len(a.free); n > 0 {
		s := a.free[n-1]
		a.free = a.free[:n-1]
		return New[K](s.index, s.epoch+1)
	}

	index := a.nextIndex
	a.nextIndex++
	return New[K](index, 1)
}

// Release frees a handle's index for reuse by a later Alloc.
func (a *Allocator[K]) Release(h Handle[K]) {
	a.mu.Lock()
	defer a.mu.Unlock()
	index, epoch := h.Unzip()
	a.free = append(a.free, freeSlot{index: index, epoch: epoch})
	a.count--
}

// Count returns the number of currently live handles.
func (a *Allocator[K]) Count() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}
