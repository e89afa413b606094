// Package backendsdk abstracts the proprietary VR SDK this runtime wraps.
// Two real implementations exist, selected by build tag/registry setting
// exactly as the teacher selects Vulkan vs DX12 vs GLES via a registered
// variant (hal.RegisterBackend/hal.GetBackend): one targets a PC-native HMD
// driver stack ("pvr"), one targets a wireless-streaming driver stack
// ("ovr"). Both satisfy the same Backend contract, the Go rendering of
// spec.md §1's "both implement the same contract and share the same hard
// problems".
package backendsdk

import (
	"errors"
	"sync"

	"github.com/vrshim/openxr-runtime/xr"
)

// Variant names a concrete backend implementation.
type Variant string

const (
	VariantPVR  Variant = "pvr"
	VariantOVR  Variant = "ovr"
	VariantStub Variant = "stub"
)

// HMDStatus is the poll result backing the session state machine (spec.md
// §4.7): connection/visibility/mount state plus tracking validity.
type HMDStatus struct {
	Connected bool
	Visible   bool
	Mounted   bool

	PositionValid     bool
	PositionTracked   bool
	OrientationValid  bool
	OrientationTracked bool
}

// HMDPose is a tracked pose plus the status flags valid at the sample time.
type HMDPose struct {
	Pose   xr.Posef
	Status HMDStatus
}

// FrameTiming is the predicted display time/period pair the backend
// reports for a frame index, in backend fractional seconds.
type FrameTiming struct {
	PredictedDisplayTimeSecs   float64
	PredictedDisplayPeriodSecs float64
}

// Backend is the capability set the runtime drives every backend SDK
// variant through. It is intentionally small: everything graphics-API
// specific lives in internal/bridge, not here.
type Backend interface {
	// Variant identifies this implementation.
	Variant() Variant

	// Open connects to the backend SDK's client library and returns a live
	// session handle to it. appName is used for logging/telemetry the
	// backend SDK itself may perform.
	Open(appName string) (Session, error)
}

// Session is a live connection to the backend SDK, created by Backend.Open
// and torn down once (Close).
type Session interface {
	// HMDInfo returns static display properties (vendor/product, refresh
	// rate, per-eye FOV/pose, preferred adapter LUID).
	HMDInfo() (vendor, product string, refreshRateHz float32, adapterLUID xr.AdapterLUID, eyeFov [2]xr.Fovf, eyePose [2]xr.Posef, err error)

	// PollStatus reports the current connection/visibility/mount state.
	PollStatus() HMDStatus

	// NowSeconds returns the backend's current time as fractional seconds,
	// the basis for QPC calibration (spec.md §3.3).
	NowSeconds() float64

	// WaitFrameTiming returns the predicted display time/period for
	// frameIndex (spec.md §4.6 step 5).
	WaitFrameTiming(frameIndex uint64) (FrameTiming, error)

	// BeginFrame signals the backend that frameIndex is starting.
	BeginFrame(frameIndex uint64) error

	// EndFrame commits layers for frameIndex. layers is an opaque,
	// backend-specific representation built by internal/layer.
	EndFrame(frameIndex uint64, layers any) error

	// LocateHMD returns the tracked HMD pose at t (backend fractional
	// seconds).
	LocateHMD(tSecs float64) (HMDPose, error)

	// FloorHeightMeters is the backend-reported STAGE space y-offset.
	FloorHeightMeters() float32

	// MaxLayers is the backend's composition layer limit.
	MaxLayers() int

	// Close tears down the connection.
	Close() error
}

// ErrBackendNotFound indicates the requested Variant is not registered.
var ErrBackendNotFound = errors.New("backendsdk: backend not registered")

var (
	mu       sync.RWMutex
	backends = make(map[Variant]Backend)
)

// Register adds backend to the process-wide registry. Called from each
// backend package's init(), mirroring hal.RegisterBackend.
func Register(backend Backend) {
	mu.Lock()
	defer mu.Unlock()
	backends[backend.Variant()] = backend
}

// Get returns the registered Backend for variant.
func Get(variant Variant) (Backend, bool) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := backends[variant]
	return b, ok
}

// Available lists all currently registered variants.
func Available() []Variant {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Variant, 0, len(backends))
	for v := range backends {
		out = append(out, v)
	}
	return out
}
