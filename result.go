package openxr

import (
	"errors"

	"github.com/vrshim/openxr-runtime/internal/framepacer"
	"github.com/vrshim/openxr-runtime/internal/handle"
	"github.com/vrshim/openxr-runtime/internal/instance"
	"github.com/vrshim/openxr-runtime/internal/session"
	"github.com/vrshim/openxr-runtime/internal/xrerr"
	"github.com/vrshim/openxr-runtime/xr"
)

// toResult translates any error returned by an internal/* package into the
// XrResult this package's functions hand back to the loader. internal/xrerr
// already owns the Result translation for errors raised directly at the
// API boundary (internal/swapchain, internal/layer, internal/fixup return
// xrerr sentinels directly); toResult additionally understands the
// package-local sentinels that predate xrerr (internal/handle,
// internal/instance, internal/session, internal/framepacer), each created
// before its call site had a reason to depend on xrerr.
func toResult(err error) xr.Result {
	if err == nil {
		return xr.Success
	}

	switch {
	case errors.Is(err, handle.ErrNotFound), errors.Is(err, handle.ErrInvalid), errors.Is(err, handle.ErrStale):
		return xr.ErrorHandleInvalid
	case errors.Is(err, instance.ErrAlreadyExists):
		return xr.ErrorLimitReached
	case errors.Is(err, instance.ErrAPIVersionUnsupported):
		return xr.ErrorAPIVersionUnsupported
	case errors.Is(err, instance.ErrExtensionNotPresent):
		return xr.ErrorExtensionNotPresent
	case errors.Is(err, session.ErrSessionNotReady):
		return xr.ErrorSessionNotReady
	case errors.Is(err, session.ErrSessionNotRunning):
		return xr.ErrorSessionNotRunning
	case errors.Is(err, session.ErrSessionNotStopping):
		return xr.ErrorSessionNotStopping
	case errors.Is(err, framepacer.ErrCallOrderInvalid):
		return xr.ErrorCallOrderInvalid
	case errors.Is(err, framepacer.ErrSessionLossPending):
		return xr.SessionLossPending
	default:
		return xrerr.Result(err)
	}
}
