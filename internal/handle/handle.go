// Package handle implements the generational (index, epoch) identifiers the
// runtime uses for every opaque OpenXR handle it hands back to the
// application (XrSwapchain, XrSpace, ...). An epoch mismatch turns a
// stale, already-destroyed handle into XR_ERROR_HANDLE_INVALID instead of
// silently aliasing a reused slot.
package handle

import "fmt"

// Index is the slot component of a Raw handle.
type Index = uint32

// Epoch is the generation component of a Raw handle; it invalidates a
// handle once its slot has been recycled.
type Epoch = uint32

// Raw is the 64-bit wire representation of a handle: index in the low 32
// bits, epoch in the high 32 bits.
type Raw uint64

// Zip combines an index and epoch into a Raw handle.
func Zip(index Index, epoch Epoch) Raw {
	return Raw(index) | (Raw(epoch) << 32)
}

// Unzip splits a Raw handle back into its index and epoch.
func (r Raw) Unzip() (Index, Epoch) {
	return Index(r & 0xFFFFFFFF), Epoch(r >> 32)
}

// Index returns the index component.
func (r Raw) Index() Index { return Index(r & 0xFFFFFFFF) }

// Epoch returns the epoch component.
func (r Raw) Epoch() Epoch { return Epoch(r >> 32) }

// IsZero reports whether r is the invalid zero handle.
func (r Raw) IsZero() bool { return r == 0 }

func (r Raw) String() string {
	index, epoch := r.Unzip()
	return fmt.Sprintf("Raw(%d,%d)", index, epoch)
}

// Kind distinguishes handle namespaces at compile time (Swapchain handles
// and Space handles can never be confused even though both wrap Raw).
type Kind interface{}

// Handle is a type-safe, generational identifier for resource kind K.
type Handle[K Kind] struct {
	raw Raw
}

// New builds a Handle from its index/epoch components.
func New[K Kind](index Index, epoch Epoch) Handle[K] {
	return Handle[K]{raw: Zip(index, epoch)}
}

// FromRaw wraps an already-zipped Raw value. Callers must ensure K matches
// the table the raw value was allocated from.
func FromRaw[K Kind](raw Raw) Handle[K] {
	return Handle[K]{raw: raw}
}

// Raw returns the underlying wire value.
func (h Handle[K]) Raw() Raw { return h.raw }

// Unzip splits the handle into index and epoch.
func (h Handle[K]) Unzip() (Index, Epoch) { return h.raw.Unzip() }

// Index returns the index component.
func (h Handle[K]) Index() Index { return h.raw.Index() }

// Epoch returns the epoch component.
func (h Handle[K]) Epoch() Epoch { return h.raw.Epoch() }

// IsZero reports whether h is the invalid zero handle (XR_NULL_HANDLE).
func (h Handle[K]) IsZero() bool { return h.raw.IsZero() }

func (h Handle[K]) String() string {
	index, epoch := h.Unzip()
	return fmt.Sprintf("Handle(%d,%d)", index, epoch)
}
