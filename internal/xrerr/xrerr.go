// Package xrerr translates internal errors into XrResult codes at the API
// boundary, mirroring the teacher's hal.Err* sentinel-error style: each
// failure mode is a package-level error created with errors.New, comparable
// with errors.Is, carrying its own XrResult mapping.
package xrerr

import (
	"errors"

	"github.com/vrshim/openxr-runtime/xr"
)

// Sentinel errors for internal failure modes that cross the API boundary.
// Each has a fixed XrResult translation via Result(err).
var (
	ErrExtensionNotPresent      = errors.New("xrerr: requested extension not present")
	ErrInstanceAlreadyExists    = errors.New("xrerr: an instance already exists")
	ErrAPIVersionUnsupported    = errors.New("xrerr: unsupported API version major")
	ErrFormFactorUnavailable    = errors.New("xrerr: HMD not available")
	ErrGraphicsDeviceInvalid    = errors.New("xrerr: application device does not match HMD adapter")
	ErrGraphicsRequirementsCallMissing = errors.New("xrerr: xrGet*GraphicsRequirementsKHR was never called")
	ErrHandleInvalid            = errors.New("xrerr: handle is invalid, stale, or unknown")
	ErrCallOrderInvalid         = errors.New("xrerr: call made out of the required order")
	ErrSessionNotReady          = errors.New("xrerr: session is not in the READY state")
	ErrSessionNotRunning        = errors.New("xrerr: session is not running")
	ErrSessionNotStopping       = errors.New("xrerr: session is not in the STOPPING state")
	ErrSwapchainFormatUnsupported = errors.New("xrerr: swapchain format not supported by this runtime")
	ErrSwapchainRectInvalid     = errors.New("xrerr: sub-image rect lies outside its swapchain")
	ErrLayerLimitExceeded       = errors.New("xrerr: layer count exceeds the backend's maximum")
	ErrEnvironmentBlendModeUnsupported = errors.New("xrerr: only XR_ENVIRONMENT_BLEND_MODE_OPAQUE is supported")
	ErrRuntimeFailure           = errors.New("xrerr: backend reported an unrecoverable failure")
	ErrSessionLossPending       = errors.New("xrerr: HMD disconnected, session loss pending")
	ErrValidationFailure        = errors.New("xrerr: caller-supplied argument failed validation")
)

var resultByError = map[error]xr.Result{
	ErrExtensionNotPresent:             xr.ErrorExtensionNotPresent,
	ErrInstanceAlreadyExists:           xr.ErrorLimitReached,
	ErrAPIVersionUnsupported:           xr.ErrorAPIVersionUnsupported,
	ErrFormFactorUnavailable:           xr.ErrorFormFactorUnavailable,
	ErrGraphicsDeviceInvalid:           xr.ErrorGraphicsDeviceInvalid,
	ErrGraphicsRequirementsCallMissing: xr.ErrorGraphicsRequirementsCallMissing,
	ErrHandleInvalid:                   xr.ErrorHandleInvalid,
	ErrCallOrderInvalid:                xr.ErrorCallOrderInvalid,
	ErrSessionNotReady:                 xr.ErrorSessionNotReady,
	ErrSessionNotRunning:               xr.ErrorSessionNotRunning,
	ErrSessionNotStopping:              xr.ErrorSessionNotStopping,
	ErrSwapchainFormatUnsupported:      xr.ErrorSwapchainFormatUnsupported,
	ErrSwapchainRectInvalid:            xr.ErrorSwapchainRectInvalid,
	ErrLayerLimitExceeded:              xr.ErrorLayerLimitExceeded,
	ErrEnvironmentBlendModeUnsupported: xr.ErrorEnvironmentBlendModeUnsupported,
	ErrRuntimeFailure:                  xr.ErrorRuntimeFailure,
	ErrSessionLossPending:              xr.SessionLossPending,
	ErrValidationFailure:               xr.ErrorValidationFailure,
}

// Result translates err into its XrResult code. A nil err maps to Success.
// An err not in the sentinel table (e.g. a wrapped backend error) maps to
// XR_ERROR_RUNTIME_FAILURE, matching §7's "any non-success code from the
// backend SDK is logged and surfaced as XR_ERROR_RUNTIME_FAILURE" rule.
func Result(err error) xr.Result {
	if err == nil {
		return xr.Success
	}
	for sentinel, result := range resultByError {
		if errors.Is(err, sentinel) {
			return result
		}
	}
	return xr.ErrorRuntimeFailure
}
