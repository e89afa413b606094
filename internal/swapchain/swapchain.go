// Package swapchain implements the Swapchain object (spec.md §3.1/§4.4,
// component C4): creation, format substitution, the acquire/wait/release
// image-index protocol, and the per-slice committed-this-frame bookkeeping
// the fixup chain (internal/fixup) consults at xrEndFrame.
//
// Grounded on core/resource.go's per-kind record-struct style and
// core/track/buffer.go's usage-flag bitmask idiom (BufferUses here becomes
// Usage, adapted from a ref-counted GPU usage tracker to the strict FIFO
// acquire queue spec.md requires).
package swapchain

import (
	"sync"

	"github.com/vrshim/openxr-runtime/internal/format"
	"github.com/vrshim/openxr-runtime/internal/handle"
	"github.com/vrshim/openxr-runtime/internal/xrerr"
	"github.com/vrshim/openxr-runtime/xr"
)

type swapKind struct{}

func (swapKind) kind() {}

// Usage mirrors the XrSwapchainUsageFlagBits bits this runtime honors.
type Usage uint32

const (
	UsageColorAttachment Usage = 1 << iota
	UsageDepthStencilAttachment
	UsageUnorderedAccess
	UsageStaticImage
	UsageProtectedContent
)

// CreateInfo mirrors the fields of XrSwapchainCreateInfo this package acts on.
type CreateInfo struct {
	Usage       Usage
	Format      format.Format
	SampleCount uint32
	Width       uint32
	Height      uint32
	FaceCount   uint32
	ArraySize   uint32
	MipCount    uint32
}

// SliceState is the per-array-slice bookkeeping the fixup chain needs:
// whether a backend swapchain exists yet for this slice, and the indices
// last processed/committed.
type SliceState struct {
	BackendCreated    bool
	LastProcessedIdx  uint32
	CommittedThisFrame bool
}

// Record is one created XrSwapchain.
type Record struct {
	Desc              CreateInfo
	SubmissionFormat  format.Format
	NeedDepthResolve  bool
	ImageCount        uint32
	acquired          []uint32 // FIFO queue of acquired-but-not-released indices
	waitedCount       int      // acquired images that have been waited on
	staticAcquired    bool     // STATIC_IMAGE_BIT: only the first acquire is allowed
	lastReleasedIndex uint32
	hasReleased       bool
	slices            map[int]*SliceState
	nextAcquireIndex  uint32
}

// Registry owns every Swapchain handle for one Session.
type Registry struct {
	mu    sync.Mutex
	table *handle.Table[*Record, swapKind]
}

// New creates an empty swapchain registry.
func New() *Registry {
	return &Registry{table: handle.NewTable[*Record, swapKind]()}
}

const defaultImageCount = 3

// Create validates and registers a new swapchain per spec.md §4.4's
// "Creation" rules, returning the handle and the backend descriptor the
// caller (internal/bridge) must realize.
func (r *Registry) Create(info CreateInfo) (xr.Swapchain, *Record, error) {
	if info.FaceCount != 1 {
		return 0, nil, xrerr.ErrSwapchainFormatUnsupported
	}
	if info.Usage&UsageProtectedContent != 0 {
		return 0, nil, xrerr.ErrSwapchainFormatUnsupported
	}
	if info.Format == format.Unknown {
		return 0, nil, xrerr.ErrSwapchainFormatUnsupported
	}

	needsComputeFixup := info.Usage&UsageUnorderedAccess != 0 || info.ArraySize > 1
	submissionFormat, needDepthResolve := format.SubmissionFormatFor(info.Format, needsComputeFixup)

	rec := &Record{
		Desc:             info,
		SubmissionFormat: submissionFormat,
		NeedDepthResolve: needDepthResolve,
		ImageCount:       defaultImageCount,
		slices:           map[int]*SliceState{0: {BackendCreated: true}},
	}

	r.mu.Lock()
	h := r.table.Insert(rec)
	r.mu.Unlock()
	return xr.Swapchain(h.Raw()), rec, nil
}

// Destroy removes a swapchain. Per spec.md §4.4's destruction order, the
// caller must have already flushed the submission context and app queue
// and released interop views before calling this.
func (r *Registry) Destroy(s xr.Swapchain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.table.Remove(handle.FromRaw[swapKind](handle.Raw(s)))
	if err != nil {
		return xrerr.ErrHandleInvalid
	}
	return nil
}

func (r *Registry) get(s xr.Swapchain) (*Record, error) {
	rec, err := r.table.Get(handle.FromRaw[swapKind](handle.Raw(s)))
	if err != nil {
		return nil, xrerr.ErrHandleInvalid
	}
	return rec, nil
}

// AcquireImage implements xrAcquireSwapchainImage: returns the next index
// in the ring, queuing it as acquired-but-not-waited. For STATIC_IMAGE_BIT
// swapchains, only the first acquire is permitted.
func (r *Registry) AcquireImage(s xr.Swapchain) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.getLocked(s)
	if err != nil {
		return 0, err
	}
	if rec.Desc.Usage&UsageStaticImage != 0 && rec.staticAcquired {
		return 0, xrerr.ErrCallOrderInvalid
	}
	idx := rec.nextAcquireIndex % rec.ImageCount
	rec.nextAcquireIndex++
	rec.acquired = append(rec.acquired, idx)
	rec.staticAcquired = true
	return idx, nil
}

// WaitImage implements xrWaitSwapchainImage. Per spec.md §4.4 this is a
// no-op in this design (frame timing guarantees image availability by the
// time the app renders), but it still enforces the call-order invariant
// that at least one image is acquired and not yet waited.
func (r *Registry) WaitImage(s xr.Swapchain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.getLocked(s)
	if err != nil {
		return err
	}
	if rec.waitedCount >= len(rec.acquired) {
		return xrerr.ErrCallOrderInvalid
	}
	rec.waitedCount++
	return nil
}

// ReleaseImage implements xrReleaseSwapchainImage: pops the oldest
// acquired-and-waited image and records it as the release pending commit
// at xrEndFrame.
func (r *Registry) ReleaseImage(s xr.Swapchain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.getLocked(s)
	if err != nil {
		return err
	}
	if rec.waitedCount == 0 || len(rec.acquired) == 0 {
		return xrerr.ErrCallOrderInvalid
	}
	idx := rec.acquired[0]
	rec.acquired = rec.acquired[1:]
	rec.waitedCount--
	rec.lastReleasedIndex = idx
	rec.hasReleased = true
	return nil
}

// LastReleasedIndex returns the image index most recently released, for the
// fixup chain to read from at xrEndFrame.
func (r *Registry) LastReleasedIndex(s xr.Swapchain) (uint32, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.getLocked(s)
	if err != nil {
		return 0, false, err
	}
	return rec.lastReleasedIndex, rec.hasReleased, nil
}

// EnsureSlice lazily creates the per-slice bookkeeping entry for an
// array-texture swapchain slice, per spec.md §4.4 step 2 ("additional
// slices are created lazily on first reference").
func (r *Registry) EnsureSlice(s xr.Swapchain, slice int) (*SliceState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.getLocked(s)
	if err != nil {
		return nil, err
	}
	st, ok := rec.slices[slice]
	if !ok {
		st = &SliceState{}
		rec.slices[slice] = st
	}
	return st, nil
}

// ResetFrameCommits clears the CommittedThisFrame flag on every slice,
// called once per xrEndFrame before the layer walk begins.
func (r *Registry) ResetFrameCommits(s xr.Swapchain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.getLocked(s)
	if err != nil {
		return err
	}
	for _, st := range rec.slices {
		st.CommittedThisFrame = false
	}
	return nil
}

func (r *Registry) getLocked(s xr.Swapchain) (*Record, error) {
	rec, err := r.table.Get(handle.FromRaw[swapKind](handle.Raw(s)))
	if err != nil {
		return nil, xrerr.ErrHandleInvalid
	}
	return rec, nil
}

// Describe returns a copy of a swapchain's static descriptor, for rect
// validation in internal/layer (xrEndFrame's imageRect-within-swapchain
// check, spec.md §4.5).
func (r *Registry) Describe(s xr.Swapchain) (CreateInfo, error) {
	rec, err := r.get(s)
	if err != nil {
		return CreateInfo{}, err
	}
	return rec.Desc, nil
}

// ImageCount returns the ring size xrEnumerateSwapchainImages reports.
func (r *Registry) ImageCount(s xr.Swapchain) (uint32, error) {
	rec, err := r.get(s)
	if err != nil {
		return 0, err
	}
	return rec.ImageCount, nil
}
