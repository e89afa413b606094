package openxr

import (
	"github.com/vrshim/openxr-runtime/internal/format"
	"github.com/vrshim/openxr-runtime/internal/swapchain"
	"github.com/vrshim/openxr-runtime/xr"
)

// EnumerateSwapchainFormats implements xrEnumerateSwapchainFormats,
// returning the runtime's priority-ordered format list per spec.md §4.4
// ("prioritizing sRGB variants and 32-bit depth").
func (r *Runtime) EnumerateSwapchainFormats(h xr.Session) ([]format.Format, xr.Result) {
	if _, err := r.sessionState(h); err != nil {
		return nil, toResult(err)
	}
	return format.D3DSwapchainFormats, xr.Success
}

// CreateSwapchain implements xrCreateSwapchain.
func (r *Runtime) CreateSwapchain(h xr.Session, info swapchain.CreateInfo) (xr.Swapchain, xr.Result) {
	ss, err := r.sessionState(h)
	if err != nil {
		return 0, toResult(err)
	}
	sc, _, err := ss.sess.Swapchains.Create(info)
	if err != nil {
		return 0, toResult(err)
	}
	return sc, xr.Success
}

// DestroySwapchain implements xrDestroySwapchain.
func (r *Runtime) DestroySwapchain(h xr.Session, sc xr.Swapchain) xr.Result {
	ss, err := r.sessionState(h)
	if err != nil {
		return toResult(err)
	}
	return toResult(ss.sess.Swapchains.Destroy(sc))
}

// EnumerateSwapchainImages implements xrEnumerateSwapchainImages, reporting
// the ring size the application must index into with the value
// AcquireSwapchainImage returns.
func (r *Runtime) EnumerateSwapchainImages(h xr.Session, sc xr.Swapchain) (uint32, xr.Result) {
	ss, err := r.sessionState(h)
	if err != nil {
		return 0, toResult(err)
	}
	n, err := ss.sess.Swapchains.ImageCount(sc)
	return n, toResult(err)
}

// AcquireSwapchainImage implements xrAcquireSwapchainImage.
func (r *Runtime) AcquireSwapchainImage(h xr.Session, sc xr.Swapchain) (uint32, xr.Result) {
	ss, err := r.sessionState(h)
	if err != nil {
		return 0, toResult(err)
	}
	idx, err := ss.sess.Swapchains.AcquireImage(sc)
	return idx, toResult(err)
}

// WaitSwapchainImage implements xrWaitSwapchainImage.
func (r *Runtime) WaitSwapchainImage(h xr.Session, sc xr.Swapchain) xr.Result {
	ss, err := r.sessionState(h)
	if err != nil {
		return toResult(err)
	}
	return toResult(ss.sess.Swapchains.WaitImage(sc))
}

// ReleaseSwapchainImage implements xrReleaseSwapchainImage.
func (r *Runtime) ReleaseSwapchainImage(h xr.Session, sc xr.Swapchain) xr.Result {
	ss, err := r.sessionState(h)
	if err != nil {
		return toResult(err)
	}
	return toResult(ss.sess.Swapchains.ReleaseImage(sc))
}
