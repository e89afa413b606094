// Package instance implements the single process-wide Instance and System,
// the XrPath string-interning table, and QPC↔XrTime calibration (spec.md
// §3.1, §3.3, §4.1). The singleton-enforcement shape is grounded on the
// teacher's core.Global (sync.Once-built singleton guarding a registry).
package instance

import (
	"sync"

	"github.com/vrshim/openxr-runtime/internal/handle"
	"github.com/vrshim/openxr-runtime/xr"
)

// Extension is one entry of the runtime's supported-extension table.
type Extension struct {
	Name    string
	Version uint32
}

// SupportedExtensions is the runtime-chosen table xrEnumerateInstanceExtensionProperties
// reports, per spec.md §4.1.
var SupportedExtensions = []Extension{
	{Name: "XR_KHR_D3D11_enable", Version: 9},
	{Name: "XR_KHR_D3D12_enable", Version: 10},
	{Name: "XR_KHR_vulkan_enable", Version: 8},
	{Name: "XR_KHR_opengl_enable", Version: 10},
	{Name: "XR_KHR_composition_layer_depth", Version: 6},
	{Name: "XR_KHR_composition_layer_cylinder", Version: 4},
	{Name: "XR_KHR_composition_layer_cube", Version: 8},
	{Name: "XR_KHR_win32_convert_performance_counter_time", Version: 1},
	{Name: "XR_KHR_visibility_mask", Version: 2},
	{Name: "XR_FB_display_refresh_rate", Version: 1},
}

// HMDInfo is the cached, backend-queried display description.
type HMDInfo struct {
	VendorName    string
	ProductName   string
	RefreshRateHz float32
	AdapterLUID   xr.AdapterLUID
	EyeFov        [2]xr.Fovf
	EyePose       [2]xr.Posef
}

type pathKind struct{}

func (pathKind) kind() {}

// Instance is the single process-wide OpenXR instance. Zero value is not
// usable; construct with New.
type Instance struct {
	mu sync.RWMutex

	enabledExtensions map[string]bool
	applicationName   string

	system    *System
	hmd       HMDInfo
	hmdLoaded bool

	pathByString map[string]xr.Path
	stringByPath map[xr.Path]string
	pathTable    *handle.Table[string, pathKind]

	timeCalibration Calibration
}

// System is the (at most one) logical HMD view exposed by xrGetSystem.
type System struct {
	ID      xr.SystemID
	Created bool
}

var (
	once     sync.Once
	singleton *Instance
	liveInstance bool
	liveMu       sync.Mutex
)

// New validates the requested extensions and API version, enforces
// single-instance, and returns the Instance. A second concurrent call while
// one Instance is still live returns ErrAlreadyExists.
func New(applicationName string, requestedExtensions []string, apiVersionMajor int) (*Instance, error) {
	liveMu.Lock()
	defer liveMu.Unlock()

	if apiVersionMajor != 1 {
		return nil, ErrAPIVersionUnsupported
	}
	if liveInstance {
		return nil, ErrAlreadyExists
	}

	supported := make(map[string]bool, len(SupportedExtensions))
	for _, e := range SupportedExtensions {
		supported[e.Name] = true
	}
	enabled := make(map[string]bool, len(requestedExtensions))
	for _, name := range requestedExtensions {
		if !supported[name] {
			return nil, ErrExtensionNotPresent
		}
		enabled[name] = true
	}

	inst := &Instance{
		enabledExtensions: enabled,
		applicationName:   applicationName,
		pathByString:      make(map[string]xr.Path),
		stringByPath:      make(map[xr.Path]string),
		pathTable:         handle.NewTable[string, pathKind](),
	}

	liveInstance = true
	singleton = inst
	return inst, nil
}

// Destroy releases the single-instance slot so a later New can succeed.
func (i *Instance) Destroy() {
	liveMu.Lock()
	defer liveMu.Unlock()
	if singleton == i {
		liveInstance = false
		singleton = nil
	}
}

// ExtensionEnabled reports whether name was enabled at New.
func (i *Instance) ExtensionEnabled(name string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.enabledExtensions[name]
}

// GetSystem returns the singleton System, creating it (and querying HMD
// info through load) on first call. Returns ErrFormFactorUnavailable if
// load reports no HMD.
func (i *Instance) GetSystem(load func() (HMDInfo, error)) (*System, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.system != nil {
		return i.system, nil
	}

	info, err := load()
	if err != nil {
		return nil, err
	}

	i.hmd = info
	i.hmdLoaded = true
	i.system = &System{ID: 1, Created: true}
	return i.system, nil
}

// HMD returns the cached HMD info. ok is false if GetSystem has not
// succeeded yet.
func (i *Instance) HMD() (HMDInfo, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.hmd, i.hmdLoaded
}

// StringToPath interns s, returning the same Path for repeated calls with
// an identical string (the §8 interning round-trip law).
func (i *Instance) StringToPath(s string) xr.Path {
	i.mu.Lock()
	defer i.mu.Unlock()

	if p, ok := i.pathByString[s]; ok {
		return p
	}
	h := i.pathTable.Insert(s)
	p := xr.Path(h.Raw())
	i.pathByString[s] = p
	i.stringByPath[p] = s
	return p
}

// PathToString resolves p back to the string it was interned from.
func (i *Instance) PathToString(p xr.Path) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	s, ok := i.stringByPath[p]
	return s, ok
}

// SetCalibration installs the QPC↔XrTime calibration computed by the
// Session's init sequence (spec.md §3.3: "computed at Session init").
func (i *Instance) SetCalibration(c Calibration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.timeCalibration = c
}

// Calibration returns the currently installed calibration.
func (i *Instance) Calibration() Calibration {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.timeCalibration
}
