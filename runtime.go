package openxr

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vrshim/openxr-runtime/backendsdk"
	"github.com/vrshim/openxr-runtime/internal/instance"
	"github.com/vrshim/openxr-runtime/internal/xrerr"
	"github.com/vrshim/openxr-runtime/xr"
)

// CreateInstanceInfo configures xrCreateInstance.
type CreateInstanceInfo struct {
	ApplicationName    string
	APIVersionMajor    int
	EnabledExtensions  []string
}

// InstanceProperties mirrors XrInstanceProperties.
type InstanceProperties struct {
	RuntimeName    string
	RuntimeVersion uint64
}

// RuntimeName/RuntimeVersion are the constants xrGetInstanceProperties
// reports, matching the product identity cmd/runtimeshim's loader manifest
// advertises.
const (
	RuntimeName    = "VRShim OpenXR Runtime"
	RuntimeVersion = uint64(1) << 48 // major=1, minor=0, patch=0
)

// instanceState is everything the Runtime tracks for one live xrInstance:
// the internal singleton, the backend SDK connection opened at xrGetSystem,
// and the per-graphics-API requirements cache xrCreateSession validates
// against.
type instanceState struct {
	inst    *instance.Instance
	backend backendsdk.Session
	variant backendsdk.Variant

	mu                sync.Mutex
	graphicsReqCalled map[xr.GraphicsAPI]bool
	requiredLUID      map[xr.GraphicsAPI]xr.AdapterLUID

	// activeSession is non-nil while this instance has a live session. The
	// OpenXR 1.0 spec never requires more than one concurrently, and this
	// shim owns exactly one backend SDK connection per instance.
	activeSession *sessionState
}

// Runtime is the process-wide dispatch target for every xrGetInstanceProcAddr
// entry point. A single Runtime is shared by every xrInstance in the
// process (the OpenXR 1.0 loader creates at most one in practice), keyed by
// handle so xrDestroyInstance/xrCreateInstance round-trips behave.
type Runtime struct {
	mu         sync.Mutex
	instances  map[xr.Instance]*instanceState
	sessions   map[xr.Session]*sessionState
	nextHandle uint64
}

// NewRuntime constructs an empty Runtime. cmd/runtimeshim builds exactly one
// at process load time.
func NewRuntime() *Runtime {
	return &Runtime{
		instances: make(map[xr.Instance]*instanceState),
		sessions:  make(map[xr.Session]*sessionState),
	}
}

func (r *Runtime) allocHandle() uint64 {
	return atomic.AddUint64(&r.nextHandle, 1)
}

// EnumerateInstanceExtensionProperties implements xrEnumerateInstanceExtensionProperties.
func (r *Runtime) EnumerateInstanceExtensionProperties() []instance.Extension {
	return instance.SupportedExtensions
}

// CreateInstance implements xrCreateInstance.
func (r *Runtime) CreateInstance(info CreateInstanceInfo) (xr.Instance, xr.Result) {
	apiMajor := info.APIVersionMajor
	if apiMajor == 0 {
		apiMajor = 1
	}
	inst, err := instance.New(info.ApplicationName, info.EnabledExtensions, apiMajor)
	if err != nil {
		return 0, toResult(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	h := xr.Instance(r.allocHandle())
	r.instances[h] = &instanceState{
		inst:              inst,
		graphicsReqCalled: make(map[xr.GraphicsAPI]bool),
		requiredLUID:      make(map[xr.GraphicsAPI]xr.AdapterLUID),
	}
	return h, xr.Success
}

// DestroyInstance implements xrDestroyInstance.
func (r *Runtime) DestroyInstance(h xr.Instance) xr.Result {
	r.mu.Lock()
	st, ok := r.instances[h]
	if ok {
		delete(r.instances, h)
	}
	r.mu.Unlock()
	if !ok {
		return xr.ErrorHandleInvalid
	}
	if st.backend != nil {
		_ = st.backend.Close()
	}
	st.inst.Destroy()
	return xr.Success
}

func (r *Runtime) instanceState(h xr.Instance) (*instanceState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.instances[h]
	if !ok {
		return nil, xrerr.ErrHandleInvalid
	}
	return st, nil
}

// GetInstanceProperties implements xrGetInstanceProperties.
func (r *Runtime) GetInstanceProperties(h xr.Instance) (InstanceProperties, xr.Result) {
	if _, err := r.instanceState(h); err != nil {
		return InstanceProperties{}, toResult(err)
	}
	return InstanceProperties{RuntimeName: RuntimeName, RuntimeVersion: RuntimeVersion}, xr.Success
}

// GetSystem implements xrGetSystem. formFactor must be
// XR_FORM_FACTOR_HEAD_MOUNTED_DISPLAY (1); this shim supports no other
// form factor.
func (r *Runtime) GetSystem(h xr.Instance, formFactor int32) (xr.SystemID, xr.Result) {
	st, err := r.instanceState(h)
	if err != nil {
		return 0, toResult(err)
	}
	if formFactor != 1 {
		return 0, xr.ErrorFormFactorUnsupported
	}

	sys, err := st.inst.GetSystem(func() (instance.HMDInfo, error) {
		return r.openBackendAndQueryHMD(st)
	})
	if err != nil {
		return 0, toResult(err)
	}
	return sys.ID, xr.Success
}

func (r *Runtime) openBackendAndQueryHMD(st *instanceState) (instance.HMDInfo, error) {
	variants := backendsdk.Available()
	if len(variants) != 1 {
		return instance.HMDInfo{}, fmt.Errorf("%w: expected exactly one registered backend SDK variant, found %d", xrerr.ErrFormFactorUnavailable, len(variants))
	}
	backend, ok := backendsdk.Get(variants[0])
	if !ok {
		return instance.HMDInfo{}, xrerr.ErrFormFactorUnavailable
	}
	sess, err := backend.Open(RuntimeName)
	if err != nil {
		return instance.HMDInfo{}, fmt.Errorf("open backend SDK: %w", err)
	}

	vendor, product, refreshRateHz, luid, eyeFov, eyePose, err := sess.HMDInfo()
	if err != nil {
		_ = sess.Close()
		return instance.HMDInfo{}, fmt.Errorf("query HMD info: %w", err)
	}

	status := sess.PollStatus()
	if !status.Connected {
		_ = sess.Close()
		return instance.HMDInfo{}, xrerr.ErrFormFactorUnavailable
	}

	st.backend = sess
	st.variant = variants[0]
	return instance.HMDInfo{
		VendorName:    vendor,
		ProductName:   product,
		RefreshRateHz: refreshRateHz,
		AdapterLUID:   luid,
		EyeFov:        eyeFov,
		EyePose:       eyePose,
	}, nil
}

// GetGraphicsRequirements implements the family of
// xrGet*GraphicsRequirementsKHR functions: it caches the adapter LUID the
// application's device must match and records that the call happened, per
// spec.md §4.1.
func (r *Runtime) GetGraphicsRequirements(h xr.Instance, api xr.GraphicsAPI) (xr.AdapterLUID, xr.Result) {
	st, err := r.instanceState(h)
	if err != nil {
		return xr.AdapterLUID{}, toResult(err)
	}
	hmd, ok := st.inst.HMD()
	if !ok {
		return xr.AdapterLUID{}, xr.ErrorValidationFailure
	}

	st.mu.Lock()
	st.graphicsReqCalled[api] = true
	st.requiredLUID[api] = hmd.AdapterLUID
	st.mu.Unlock()

	return hmd.AdapterLUID, xr.Success
}

// StringToPath implements xrStringToPath.
func (r *Runtime) StringToPath(h xr.Instance, s string) (xr.Path, xr.Result) {
	st, err := r.instanceState(h)
	if err != nil {
		return 0, toResult(err)
	}
	return st.inst.StringToPath(s), xr.Success
}

// PathToString implements xrPathToString.
func (r *Runtime) PathToString(h xr.Instance, p xr.Path) (string, xr.Result) {
	st, err := r.instanceState(h)
	if err != nil {
		return "", toResult(err)
	}
	s, ok := st.inst.PathToString(p)
	if !ok {
		return "", xr.ErrorPathInvalid
	}
	return s, xr.Success
}

// ConvertWin32PerformanceCounterToTime implements
// xrConvertWin32PerformanceCounterToTimeKHR.
func (r *Runtime) ConvertWin32PerformanceCounterToTime(h xr.Instance, qpc int64) (xr.Time, xr.Result) {
	st, err := r.instanceState(h)
	if err != nil {
		return 0, toResult(err)
	}
	return st.inst.Calibration().QPCToXrTime(qpc), xr.Success
}

// ConvertTimeToWin32PerformanceCounter implements
// xrConvertTimeToWin32PerformanceCounterKHR.
func (r *Runtime) ConvertTimeToWin32PerformanceCounter(h xr.Instance, t xr.Time) (int64, xr.Result) {
	st, err := r.instanceState(h)
	if err != nil {
		return 0, toResult(err)
	}
	return st.inst.Calibration().XrTimeToQPC(t), xr.Success
}
