// Package stub is an in-process fake of the backend VR SDK, grounded on the
// teacher's hal/noop backend: a fully functional, allocation-free
// implementation of the same interface real backends satisfy, so higher
// layers (session state machine, frame pacing, space resolver) can be
// exercised by tests without a GPU or real HMD hardware.
package stub

import (
	"sync"
	"time"

	"github.com/vrshim/openxr-runtime/backendsdk"
	"github.com/vrshim/openxr-runtime/xr"
)

func init() {
	backendsdk.Register(&Backend{})
}

// Backend is the stub backendsdk.Backend. Every Open call returns a fresh
// Session seeded with Connected=true, Visible=true, Mounted=true so tests
// default to the "everything is working" path; call Session.SetStatus to
// drive other state-machine transitions.
type Backend struct{}

func (*Backend) Variant() backendsdk.Variant { return backendsdk.VariantStub }

func (*Backend) Open(appName string) (backendsdk.Session, error) {
	return &Session{
		appName: appName,
		start:   time.Now(),
		status: backendsdk.HMDStatus{
			Connected: true, Visible: true, Mounted: true,
			PositionValid: true, PositionTracked: true,
			OrientationValid: true, OrientationTracked: true,
		},
		refreshRateHz: 90,
		floorHeight:   1.0,
		maxLayers:     16,
	}, nil
}

// Session is the stub backendsdk.Session.
type Session struct {
	mu      sync.Mutex
	appName string
	start   time.Time
	closed  bool

	status        backendsdk.HMDStatus
	refreshRateHz float32
	floorHeight   float32
	maxLayers     int
	pose          xr.Posef

	lastLayers any
}

// SetStatus overrides the polled HMD status, used by session/framepacer
// tests to drive disconnect/visibility/mount transitions.
func (s *Session) SetStatus(status backendsdk.HMDStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// SetPose overrides the pose LocateHMD reports.
func (s *Session) SetPose(p xr.Posef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pose = p
}

// LastLayers returns whatever was passed to the most recent EndFrame, for
// assertions in layer-assembly tests.
func (s *Session) LastLayers() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLayers
}

func (s *Session) HMDInfo() (vendor, product string, refreshRateHz float32, adapterLUID xr.AdapterLUID, eyeFov [2]xr.Fovf, eyePose [2]xr.Posef, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fov := xr.Fovf{AngleLeft: -0.9, AngleRight: 0.9, AngleUp: 0.9, AngleDown: -0.9}
	return "Stub Vendor", "Stub HMD", s.refreshRateHz, xr.AdapterLUID{Low: 1}, [2]xr.Fovf{fov, fov}, [2]xr.Posef{xr.IdentityPose(), xr.IdentityPose()}, nil
}

func (s *Session) PollStatus() backendsdk.HMDStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) NowSeconds() float64 {
	return time.Since(s.start).Seconds()
}

func (s *Session) WaitFrameTiming(frameIndex uint64) (backendsdk.FrameTiming, error) {
	period := 1.0 / float64(s.refreshRateHz)
	return backendsdk.FrameTiming{
		PredictedDisplayTimeSecs:   s.NowSeconds() + period,
		PredictedDisplayPeriodSecs: period,
	}, nil
}

func (s *Session) BeginFrame(frameIndex uint64) error { return nil }

func (s *Session) EndFrame(frameIndex uint64, layers any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLayers = layers
	return nil
}

func (s *Session) LocateHMD(tSecs float64) (backendsdk.HMDPose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return backendsdk.HMDPose{Pose: s.pose, Status: s.status}, nil
}

func (s *Session) FloorHeightMeters() float32 { return s.floorHeight }

func (s *Session) MaxLayers() int { return s.maxLayers }

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
