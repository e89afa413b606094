// Package fixup implements the per-slice, per-frame fixup chain invoked by
// internal/layer at xrEndFrame (spec.md §4.4, component C5): depth-resolve,
// alpha-correct, sRGB conversion, array-slice copy, and optional FSR
// upscale/sharpen passes.
//
// The actual compute/graphics passes are WGSL sources in
// internal/bridge/shaders, compiled per graphics API by each internal/bridge
// package through naga (see DESIGN.md); this package owns the sequencing
// algorithm and calls out to the Ops interface so it can be driven by a
// real submission device or, in tests, a recording fake — grounded on
// hal/dx12/pipeline.go's separation between PSO-creation/dispatch
// plumbing and the pass-sequencing logic that drives it.
package fixup

// AlphaCorrectBits are the constant bits spec.md §4.2/§4.4 defines for the
// alpha-correct compute shader's 32-bit constant.
const (
	AlphaCorrectClear       uint32 = 1 << 0
	AlphaCorrectPremultiply uint32 = 1 << 1
)

// Key identifies one backend swapchain/slice pair already committed this
// frame, per spec.md §4.4's `committed` set.
type Key struct {
	Swapchain uint64 // the slice-0 backend swapchain identity
	Slice     int
}

// Ops is the set of GPU operations the fixup chain drives. Implementations
// are each internal/bridge package's opsImpl or a test fake; this package
// never touches a graphics API directly.
type Ops interface {
	// CopySubresourceRegion copies srcSlice of src into dstSubresource of dst.
	CopySubresourceRegion(src Image, srcSubresource uint32, dst Image, dstSubresource uint32)
	// DispatchAlphaCorrect runs the alpha-correct compute shader (Tex2D or
	// Tex2DArray variant selected by arraySize) over src, writing resolved.
	DispatchAlphaCorrect(src Image, resolved Image, arraySize uint32, constants uint32, width, height uint32)
	// DispatchSRGBConvert runs the full-quad VS + sRGB PS pass from resolved
	// into the sRGB RTV of dst.
	DispatchSRGBConvert(resolved Image, dst Image)
	// DispatchDepthResolve runs the depth-resolve compute shader
	// (R32_FLOAT_X8X24 SRV -> R32_FLOAT UAV), dropping the stencil plane.
	DispatchDepthResolve(src Image, dst Image, arraySize uint32, width, height uint32)
	// DispatchEASU runs FSR's edge-adaptive spatial upsample into dst.
	DispatchEASU(src Image, dst Image, srcWidth, srcHeight, dstWidth, dstHeight uint32)
	// DispatchCAS runs FSR's contrast-adaptive sharpen into dst.
	DispatchCAS(src Image, dst Image, width, height uint32)
}

// Image is an opaque GPU-resident image reference; internal/bridge supplies
// the concrete value (an imported D3D11 texture, a Vulkan image, ...).
type Image any

// LayerFlags mirrors the XrCompositionLayerFlagBits this chain consults.
type LayerFlags uint32

const (
	FlagSourceAlpha LayerFlags = 1 << iota
	FlagUnpremultipliedAlpha
)

// SliceInput is everything the chain needs for one (layer, slice) commit.
type SliceInput struct {
	LayerIndex  int
	Slice       int
	Flags       LayerFlags
	Released    Image // the app-released image for slice 0
	ResolvedTmp Image // non-sRGB intermediate the alpha-correct pass writes to
	Backend     Image // this slice's backend-committed image
	ArraySize   uint32
	Width       uint32
	Height      uint32
	DestSRGB    bool
	NeedDepthResolve bool
	DepthSRC    Image
	DepthDst    Image
	Upscale     bool
	Sharpen     bool
	UpscaleTmp  Image
	UpscaledW   uint32
	UpscaledH   uint32
}

// Chain tracks the committed set for one frame and drives the fixup steps.
type Chain struct {
	ops       Ops
	committed map[Key]bool
	lastIndex map[Key]uint32
}

// New creates an empty fixup chain bound to ops.
func New(ops Ops) *Chain {
	return &Chain{ops: ops, committed: make(map[Key]bool), lastIndex: make(map[Key]uint32)}
}

// Reset clears the committed set, called once per xrEndFrame before the
// layer walk (spec.md §4.4's `committed` set is frame-scoped).
func (c *Chain) Reset() {
	c.committed = make(map[Key]bool)
}

// Commit runs the algorithm in spec.md §4.4's "Per-slice, per-frame fixup
// chain" section for one (swapchain, slice) pair, given the release index
// already recorded by internal/swapchain.
func (c *Chain) Commit(key Key, in SliceInput, lastReleasedIndex uint32) {
	if c.committed[key] {
		return
	}

	needClearAlpha := in.LayerIndex > 0 && in.Flags&FlagSourceAlpha == 0
	needPremultiply := in.Flags&FlagUnpremultipliedAlpha != 0
	lastProcessed, seen := c.lastIndex[key]
	needCopy := (seen && lastProcessed == lastReleasedIndex) ||
		(in.Slice > 0 && !needClearAlpha && !needPremultiply)

	switch {
	case needCopy:
		c.ops.CopySubresourceRegion(in.Released, uint32(in.Slice), in.Backend, 0)
	case needClearAlpha || needPremultiply:
		var bits uint32
		if needClearAlpha {
			bits |= AlphaCorrectClear
		}
		if needPremultiply {
			bits |= AlphaCorrectPremultiply
		}
		c.ops.DispatchAlphaCorrect(in.Released, in.ResolvedTmp, in.ArraySize, bits, in.Width, in.Height)
		if in.DestSRGB {
			c.ops.DispatchSRGBConvert(in.ResolvedTmp, in.Backend)
		} else {
			c.ops.CopySubresourceRegion(in.ResolvedTmp, 0, in.Backend, 0)
		}
	}

	if in.NeedDepthResolve {
		c.ops.DispatchDepthResolve(in.DepthSRC, in.DepthDst, in.ArraySize, in.Width, in.Height)
		c.ops.CopySubresourceRegion(in.DepthDst, 0, in.Backend, 0)
	}

	if in.Upscale {
		c.ops.DispatchEASU(in.Backend, in.UpscaleTmp, in.Width, in.Height, in.UpscaledW, in.UpscaledH)
		if in.Sharpen {
			c.ops.DispatchCAS(in.UpscaleTmp, in.Backend, in.UpscaledW, in.UpscaledH)
		}
	}

	c.committed[key] = true
	c.lastIndex[key] = lastReleasedIndex
}

// Committed reports whether (swapchain, slice) has already been processed
// this frame.
func (c *Chain) Committed(key Key) bool { return c.committed[key] }

// DispatchGroups computes the 8x8-threadgroup dispatch size spec.md §4.4
// step 6 specifies: ceil(w/8) x ceil(h/8) x 1.
func DispatchGroups(width, height uint32) (x, y, z uint32) {
	return (width + 7) / 8, (height + 7) / 8, 1
}
