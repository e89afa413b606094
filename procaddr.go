package openxr

import (
	"sync"
	"unsafe"

	"github.com/vrshim/openxr-runtime/xr"
)

// noInstanceRequired is the handful of OpenXR 1.0 functions callable with
// XR_NULL_HANDLE, per the core spec's xrGetInstanceProcAddr rules.
var noInstanceRequired = map[string]bool{
	"xrEnumerateInstanceExtensionProperties": true,
	"xrEnumerateApiLayerProperties":          true,
	"xrCreateInstance":                       true,
	"xrGetInstanceProcAddr":                  true,
}

var (
	procMu    sync.RWMutex
	procTable = make(map[string]unsafe.Pointer)
)

// RegisterProcAddr installs the C-callable trampoline address for name.
// cmd/runtimeshim calls this once per //export'd function at init time,
// since only a package built with cgo can take the address of its own
// exported C symbols.
func RegisterProcAddr(name string, fn unsafe.Pointer) {
	procMu.Lock()
	defer procMu.Unlock()
	procTable[name] = fn
}

// GetInstanceProcAddr implements xrGetInstanceProcAddr: resolves name to
// the trampoline RegisterProcAddr installed for it, after validating
// instance for the functions that require one.
func (r *Runtime) GetInstanceProcAddr(h xr.Instance, name string) (unsafe.Pointer, xr.Result) {
	if !noInstanceRequired[name] {
		if _, err := r.instanceState(h); err != nil {
			return nil, toResult(err)
		}
	}

	procMu.RLock()
	fn, ok := procTable[name]
	procMu.RUnlock()
	if !ok {
		return nil, xr.ErrorFunctionUnsupported
	}
	return fn, xr.Success
}
