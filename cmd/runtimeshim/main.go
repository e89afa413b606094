// Command runtimeshim is the loadable OpenXR runtime: a cgo c-shared
// entry point exporting xrNegotiateLoaderRuntimeInterface and, through the
// function pointer it installs, every other OpenXR 1.0 entry point this
// shim implements. Grounded on
// original_source/virtualdesktop-openxr/framework/entry.cpp's negotiation
// validation and the teacher's cmd/*/main.go demo-binary shape, adapted
// from a throwaway test program into the actual runtime's loadable shell.
package main

/*
#include <stdint.h>
#include <stddef.h>
#include <string.h>

typedef int32_t  XrResult;
typedef uint64_t XrVersion;
typedef int64_t  XrTime;
typedef uint64_t XrInstance;
typedef uint64_t XrSession;

#define XR_LOADER_INTERFACE_STRUCT_LOADER_INFO 1
#define XR_LOADER_INTERFACE_STRUCT_RUNTIME_REQUEST 2
#define XR_LOADER_INFO_STRUCT_VERSION 1
#define XR_RUNTIME_INFO_STRUCT_VERSION 1
#define XR_ERROR_INITIALIZATION_FAILED (-6)
#define XR_ERROR_HANDLE_INVALID (-12)
#define XR_ERROR_VALIDATION_FAILURE (-1)
#define XR_SUCCESS 0

typedef XrResult (*PFN_xrGetInstanceProcAddr)(XrInstance instance, const char* name, void** function);

typedef struct XrNegotiateLoaderInfo {
    uint32_t  structType;
    uint32_t  structVersion;
    size_t    structSize;
    uint32_t  minInterfaceVersion;
    uint32_t  maxInterfaceVersion;
    XrVersion minApiVersion;
    XrVersion maxApiVersion;
} XrNegotiateLoaderInfo;

typedef struct XrNegotiateRuntimeRequest {
    uint32_t  structType;
    uint32_t  structVersion;
    size_t    structSize;
    uint32_t  runtimeInterfaceVersion;
    XrVersion runtimeApiVersion;
    PFN_xrGetInstanceProcAddr getInstanceProcAddr;
} XrNegotiateRuntimeRequest;

// XrInstanceCreateInfo is trimmed to the fields this shim reads: the real
// struct's XrApplicationInfo.applicationName and apiVersion, plus the
// enabled-extension-name array.
typedef struct XrInstanceCreateInfo {
    char        applicationName[128];
    uint32_t    apiVersionMajor;
    uint32_t    enabledExtensionCount;
    const char* const* enabledExtensionNames;
} XrInstanceCreateInfo;

typedef struct XrInstanceProperties {
    char      runtimeName[128];
    XrVersion runtimeVersion;
} XrInstanceProperties;

typedef struct XrSystemGetInfo {
    int32_t formFactor;
} XrSystemGetInfo;

typedef struct XrGraphicsBindingInfo {
    int32_t  graphicsAPI;
    uint32_t adapterLUIDLow;
    int32_t  adapterLUIDHigh;
} XrGraphicsBindingInfo;

typedef struct XrEventDataSessionStateChanged {
    int32_t state;
    XrTime  time;
} XrEventDataSessionStateChanged;

typedef struct XrFrameState {
    XrTime predictedDisplayTime;
    XrTime predictedDisplayPeriod;
} XrFrameState;

// XrFrameEndInfo is trimmed to the projection-layer path; quad/cylinder/cube
// layers share the CompositionLayer union on the Go side but are not yet
// exposed through this cgo boundary.
typedef struct XrFrameEndInfo {
    XrTime  displayTime;
    int32_t environmentBlendMode;
    uint32_t layerCount;
} XrFrameEndInfo;
*/
import "C"

import (
	"unsafe"

	"github.com/vrshim/openxr-runtime/internal/session"
	"github.com/vrshim/openxr-runtime/xr"

	_ "github.com/vrshim/openxr-runtime/backendsdk/ovr"
	_ "github.com/vrshim/openxr-runtime/backendsdk/pvr"
	_ "github.com/vrshim/openxr-runtime/internal/bridge/d3d11"
	_ "github.com/vrshim/openxr-runtime/internal/bridge/d3d12"
	_ "github.com/vrshim/openxr-runtime/internal/bridge/opengl"
	_ "github.com/vrshim/openxr-runtime/internal/bridge/vulkan"

	"github.com/vrshim/openxr-runtime"
)

// rt is the single Runtime every trampoline in this file dispatches
// through. cmd/runtimeshim is a process-global c-shared library, so one
// Runtime per process load matches the real loader's lifecycle.
var rt = openxr.NewRuntime()

func init() {
	registerProcAddrs()
}

// registerProcAddrs installs every //export'd trampoline's address into
// openxr's proc-addr table. Only cgo-built code can take the address of its
// own C-exported symbols, so this registration can't live in the openxr
// package itself.
func registerProcAddrs() {
	openxr.RegisterProcAddr("xrGetInstanceProcAddr", unsafe.Pointer(C.xrGetInstanceProcAddr))
	openxr.RegisterProcAddr("xrCreateInstance", unsafe.Pointer(C.xrCreateInstance))
	openxr.RegisterProcAddr("xrDestroyInstance", unsafe.Pointer(C.xrDestroyInstance))
	openxr.RegisterProcAddr("xrGetInstanceProperties", unsafe.Pointer(C.xrGetInstanceProperties))
	openxr.RegisterProcAddr("xrGetSystem", unsafe.Pointer(C.xrGetSystem))
	openxr.RegisterProcAddr("xrCreateSession", unsafe.Pointer(C.xrCreateSession))
	openxr.RegisterProcAddr("xrDestroySession", unsafe.Pointer(C.xrDestroySession))
	openxr.RegisterProcAddr("xrBeginSession", unsafe.Pointer(C.xrBeginSession))
	openxr.RegisterProcAddr("xrEndSession", unsafe.Pointer(C.xrEndSession))
	openxr.RegisterProcAddr("xrRequestExitSession", unsafe.Pointer(C.xrRequestExitSession))
	openxr.RegisterProcAddr("xrPollEvent", unsafe.Pointer(C.xrPollEvent))
	openxr.RegisterProcAddr("xrWaitFrame", unsafe.Pointer(C.xrWaitFrame))
	openxr.RegisterProcAddr("xrBeginFrame", unsafe.Pointer(C.xrBeginFrame))
	openxr.RegisterProcAddr("xrEndFrame", unsafe.Pointer(C.xrEndFrame))
	openxr.RegisterProcAddr("xrStringToPath", unsafe.Pointer(C.xrStringToPath))
	openxr.RegisterProcAddr("xrPathToString", unsafe.Pointer(C.xrPathToString))
}

// xrNegotiateLoaderRuntimeInterface is the loader's entry point into this
// library, the only symbol resolved by name at dlopen time; every other
// function is reached through the getInstanceProcAddr pointer installed
// here.
//
//export xrNegotiateLoaderRuntimeInterface
func xrNegotiateLoaderRuntimeInterface(loaderInfo *C.XrNegotiateLoaderInfo, runtimeRequest *C.XrNegotiateRuntimeRequest) C.XrResult {
	if loaderInfo == nil || runtimeRequest == nil ||
		loaderInfo.structType != C.XR_LOADER_INTERFACE_STRUCT_LOADER_INFO ||
		loaderInfo.structVersion != C.XR_LOADER_INFO_STRUCT_VERSION ||
		loaderInfo.structSize != C.size_t(unsafe.Sizeof(C.XrNegotiateLoaderInfo{})) ||
		runtimeRequest.structType != C.XR_LOADER_INTERFACE_STRUCT_RUNTIME_REQUEST ||
		runtimeRequest.structVersion != C.XR_RUNTIME_INFO_STRUCT_VERSION ||
		runtimeRequest.structSize != C.size_t(unsafe.Sizeof(C.XrNegotiateRuntimeRequest{})) {
		return C.XR_ERROR_INITIALIZATION_FAILED
	}

	result, err := openxr.Negotiate(openxr.LoaderInfo{
		MinInterfaceVersion: uint32(loaderInfo.minInterfaceVersion),
		MaxInterfaceVersion: uint32(loaderInfo.maxInterfaceVersion),
		MinAPIVersion:       uint64(loaderInfo.minApiVersion),
		MaxAPIVersion:       uint64(loaderInfo.maxApiVersion),
	})
	if err != nil {
		return C.XR_ERROR_INITIALIZATION_FAILED
	}

	runtimeRequest.getInstanceProcAddr = C.PFN_xrGetInstanceProcAddr(C.xrGetInstanceProcAddr)
	runtimeRequest.runtimeInterfaceVersion = C.uint32_t(result.RuntimeInterfaceVersion)
	runtimeRequest.runtimeApiVersion = C.XrVersion(result.RuntimeAPIVersion)
	return C.XR_SUCCESS
}

// xrGetInstanceProcAddr is the single dispatch point every other OpenXR
// function is resolved through, per spec.md §6.
//
//export xrGetInstanceProcAddr
func xrGetInstanceProcAddr(instance C.XrInstance, name *C.char, function *unsafe.Pointer) C.XrResult {
	fn, result := rt.GetInstanceProcAddr(xr.Instance(instance), C.GoString(name))
	*function = fn
	return C.XrResult(result)
}

func cString128(buf *C.char) string {
	return C.GoString((*C.char)(unsafe.Pointer(buf)))
}

//export xrCreateInstance
func xrCreateInstance(info *C.XrInstanceCreateInfo, instance *C.XrInstance) C.XrResult {
	if info == nil || instance == nil {
		return C.XR_ERROR_VALIDATION_FAILURE
	}

	extensions := make([]string, 0, int(info.enabledExtensionCount))
	if info.enabledExtensionCount > 0 && info.enabledExtensionNames != nil {
		names := unsafe.Slice(info.enabledExtensionNames, int(info.enabledExtensionCount))
		for _, n := range names {
			extensions = append(extensions, C.GoString(n))
		}
	}

	h, result := rt.CreateInstance(openxr.CreateInstanceInfo{
		ApplicationName:   cString128(&info.applicationName[0]),
		APIVersionMajor:   int(info.apiVersionMajor),
		EnabledExtensions: extensions,
	})
	*instance = C.XrInstance(h)
	return C.XrResult(result)
}

//export xrDestroyInstance
func xrDestroyInstance(instance C.XrInstance) C.XrResult {
	return C.XrResult(rt.DestroyInstance(xr.Instance(instance)))
}

//export xrGetInstanceProperties
func xrGetInstanceProperties(instance C.XrInstance, out *C.XrInstanceProperties) C.XrResult {
	props, result := rt.GetInstanceProperties(xr.Instance(instance))
	if result.Succeeded() && out != nil {
		name := []byte(props.RuntimeName)
		n := copy((*[128]byte)(unsafe.Pointer(&out.runtimeName[0]))[:127], name)
		out.runtimeName[n] = 0
		out.runtimeVersion = C.XrVersion(props.RuntimeVersion)
	}
	return C.XrResult(result)
}

//export xrGetSystem
func xrGetSystem(instance C.XrInstance, info *C.XrSystemGetInfo, systemID *C.uint64_t) C.XrResult {
	if info == nil || systemID == nil {
		return C.XR_ERROR_VALIDATION_FAILURE
	}
	sys, result := rt.GetSystem(xr.Instance(instance), int32(info.formFactor))
	*systemID = C.uint64_t(sys)
	return C.XrResult(result)
}

//export xrCreateSession
func xrCreateSession(instance C.XrInstance, binding *C.XrGraphicsBindingInfo, session_ *C.XrSession) C.XrResult {
	if binding == nil || session_ == nil {
		return C.XR_ERROR_VALIDATION_FAILURE
	}
	h, result := rt.CreateSession(xr.Instance(instance), session.GraphicsBinding{
		API: xr.GraphicsAPI(binding.graphicsAPI),
		DeviceLUID: xr.AdapterLUID{
			Low:  uint32(binding.adapterLUIDLow),
			High: int32(binding.adapterLUIDHigh),
		},
	})
	*session_ = C.XrSession(h)
	return C.XrResult(result)
}

//export xrDestroySession
func xrDestroySession(session_ C.XrSession) C.XrResult {
	return C.XrResult(rt.DestroySession(xr.Session(session_)))
}

//export xrBeginSession
func xrBeginSession(session_ C.XrSession) C.XrResult {
	return C.XrResult(rt.BeginSession(xr.Session(session_)))
}

//export xrEndSession
func xrEndSession(session_ C.XrSession) C.XrResult {
	return C.XrResult(rt.EndSession(xr.Session(session_)))
}

//export xrRequestExitSession
func xrRequestExitSession(session_ C.XrSession) C.XrResult {
	return C.XrResult(rt.RequestExitSession(xr.Session(session_)))
}

//export xrPollEvent
func xrPollEvent(session_ C.XrSession, out *C.XrEventDataSessionStateChanged) C.XrResult {
	ev, ok, result := rt.PollEvent(xr.Session(session_))
	if !result.Succeeded() {
		return C.XrResult(result)
	}
	if !ok {
		return C.XrResult(xr.EventUnavailable)
	}
	if out != nil {
		out.state = C.int32_t(ev.State)
		out.time = C.XrTime(ev.Time)
	}
	return C.XR_SUCCESS
}

//export xrWaitFrame
func xrWaitFrame(session_ C.XrSession, out *C.XrFrameState) C.XrResult {
	displayTime, period, result := rt.WaitFrame(xr.Session(session_))
	if out != nil {
		out.predictedDisplayTime = C.XrTime(displayTime)
		out.predictedDisplayPeriod = C.XrTime(period)
	}
	return C.XrResult(result)
}

//export xrBeginFrame
func xrBeginFrame(session_ C.XrSession) C.XrResult {
	return C.XrResult(rt.BeginFrame(xr.Session(session_)))
}

// xrEndFrame forwards only the display time and environment blend mode; the
// layer array (projection/quad/cylinder/cube composition) is not read across
// this cgo boundary, so it always submits a zero-layer frame.
//
//export xrEndFrame
func xrEndFrame(session_ C.XrSession, info *C.XrFrameEndInfo) C.XrResult {
	if info == nil {
		return C.XR_ERROR_VALIDATION_FAILURE
	}
	result := rt.EndFrame(xr.Session(session_), xr.FrameEndInfo{
		DisplayTime:          xr.Time(info.displayTime),
		EnvironmentBlendMode: xr.EnvironmentBlendMode(info.environmentBlendMode),
	})
	return C.XrResult(result)
}

//export xrStringToPath
func xrStringToPath(instance C.XrInstance, pathString *C.char, path *C.uint64_t) C.XrResult {
	if pathString == nil || path == nil {
		return C.XR_ERROR_VALIDATION_FAILURE
	}
	p, result := rt.StringToPath(xr.Instance(instance), C.GoString(pathString))
	*path = C.uint64_t(p)
	return C.XrResult(result)
}

//export xrPathToString
func xrPathToString(instance C.XrInstance, path C.uint64_t, bufferCapacityInput C.uint32_t, bufferCountOutput *C.uint32_t, buffer *C.char) C.XrResult {
	s, result := rt.PathToString(xr.Instance(instance), xr.Path(path))
	if !result.Succeeded() {
		return C.XrResult(result)
	}
	needed := C.uint32_t(len(s) + 1)
	if bufferCountOutput != nil {
		*bufferCountOutput = needed
	}
	if bufferCapacityInput == 0 {
		return C.XR_SUCCESS
	}
	if bufferCapacityInput < needed {
		return C.XrResult(xr.ErrorSizeInsufficient)
	}
	if buffer != nil {
		dst := unsafe.Slice((*byte)(unsafe.Pointer(buffer)), int(bufferCapacityInput))
		n := copy(dst, s)
		dst[n] = 0
	}
	return C.XR_SUCCESS
}

func main() {}
