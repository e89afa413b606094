// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build windows

// Package ovr binds backendsdk.Backend to the wireless-streaming driver's
// LibOVR-compatible client DLL (OVRlay.dll /
// LibOVRRT64_1.dll, depending on install), the path
// original_source/virtualdesktop-openxr/system.cpp loads via LoadLibrary
// before resolving ovr_Create/ovr_Destroy et al. This shim resolves the
// same entry points with goffi rather than an import lib, following
// hal/vulkan/vk/loader.go's DLL-binding pattern. Unlike pvr, LibOVR is
// process-global: there is one implicit context (ovr_Initialize /
// ovr_Shutdown) and a single live ovrSession per process, matching
// system.cpp's m_ovrSession field.
package ovr

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"

	"github.com/vrshim/openxr-runtime/backendsdk"
	"github.com/vrshim/openxr-runtime/xr"
)

func init() {
	backendsdk.Register(&Backend{})
}

// Backend is the backendsdk.Backend for the wireless-streaming driver.
type Backend struct{}

func (*Backend) Variant() backendsdk.Variant { return backendsdk.VariantOVR }

func (*Backend) Open(appName string) (backendsdk.Session, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if res := ovrInitialize(); res < 0 {
		return nil, fmt.Errorf("ovr: ovr_Initialize failed, result=%d", res)
	}
	var session uint64
	var luid xr.AdapterLUID
	if res := ovrCreate(&session, &luid); res < 0 {
		ovrShutdown()
		return nil, fmt.Errorf("ovr: ovr_Create failed, result=%d", res)
	}
	return &Session{session: session, adapterLUID: luid, start: time.Now()}, nil
}

// Session is the backendsdk.Session backed by a live ovrSession.
type Session struct {
	mu          sync.Mutex
	session     uint64
	adapterLUID xr.AdapterLUID
	start       time.Time
}

func (s *Session) HMDInfo() (vendor, product string, refreshRateHz float32, adapterLUID xr.AdapterLUID, eyeFov [2]xr.Fovf, eyePose [2]xr.Posef, err error) {
	var desc nativeHmdDesc
	if res := ovrGetHmdDesc(s.session, &desc); res < 0 {
		return "", "", 0, xr.AdapterLUID{}, eyeFov, eyePose, fmt.Errorf("ovr: ovr_GetHmdDesc failed, result=%d", res)
	}
	return cString(desc.Manufacturer[:]), cString(desc.ProductName[:]), desc.RefreshHz,
		s.adapterLUID, desc.EyeFov, [2]xr.Posef{xr.IdentityPose(), xr.IdentityPose()}, nil
}

func (s *Session) PollStatus() backendsdk.HMDStatus {
	var st nativeSessionStatus
	if res := ovrGetSessionStatus(s.session, &st); res < 0 {
		return backendsdk.HMDStatus{}
	}
	return backendsdk.HMDStatus{
		Connected:          st.HmdPresent != 0,
		Visible:            st.IsVisible != 0,
		Mounted:            st.HmdMounted != 0,
		PositionValid:      st.HasPositionTracking != 0,
		PositionTracked:    st.HasPositionTracking != 0,
		OrientationValid:   true,
		OrientationTracked: true,
	}
}

func (s *Session) NowSeconds() float64 {
	return float64(ovrGetTimeInSeconds())
}

func (s *Session) WaitFrameTiming(frameIndex uint64) (backendsdk.FrameTiming, error) {
	predicted := ovrGetPredictedDisplayTime(s.session, frameIndex)
	return backendsdk.FrameTiming{
		PredictedDisplayTimeSecs:   float64(predicted),
		PredictedDisplayPeriodSecs: 1.0 / 90.0,
	}, nil
}

// BeginFrame has no direct LibOVR equivalent: the streaming driver's
// ovr_WaitToBeginFrame/ovr_BeginFrame pair folds frame pacing into
// WaitFrameTiming on this shim's side, so BeginFrame is a no-op that only
// validates the session is still live.
func (s *Session) BeginFrame(frameIndex uint64) error {
	if s.session == 0 {
		return fmt.Errorf("ovr: BeginFrame on closed session")
	}
	return nil
}

// EndFrame submits frameIndex's composition layers through ovr_EndFrame.
// Marshaling this shim's layer representation (internal/layer) into
// LibOVR's ovrLayerHeader array is not yet implemented, so layers is
// accepted but not forwarded — frames submit with an empty layer list.
func (s *Session) EndFrame(frameIndex uint64, layers any) error {
	if res := ovrEndFrame(s.session, frameIndex); res < 0 {
		return fmt.Errorf("ovr: ovr_EndFrame failed, result=%d", res)
	}
	return nil
}

func (s *Session) LocateHMD(tSecs float64) (backendsdk.HMDPose, error) {
	var pose xr.Posef
	res := ovrGetTrackingState(s.session, float32(tSecs), &pose)
	if res < 0 {
		return backendsdk.HMDPose{}, fmt.Errorf("ovr: ovr_GetTrackingState failed, result=%d", res)
	}
	return backendsdk.HMDPose{Pose: pose, Status: s.PollStatus()}, nil
}

// FloorHeightMeters has no dedicated LibOVR query; system.cpp instead
// derives floor height from the tracking origin type
// (ovrTrackingOrigin_FloorLevel vs ovrTrackingOrigin_EyeLevel), which this
// shim's internal/space module already resolves independently of the
// backend, so a fixed eye-level default is returned here.
func (*Session) FloorHeightMeters() float32 { return 0 }

func (*Session) MaxLayers() int { return 16 }

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != 0 {
		ovrDestroy(s.session)
		s.session = 0
	}
	ovrShutdown()
	return nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// --- goffi binding, grounded on hal/vulkan/vk/loader.go's pattern ---

type nativeHmdDesc struct {
	Manufacturer [64]byte
	ProductName  [128]byte
	RefreshHz    float32
	EyeFov       [2]xr.Fovf
}

type nativeSessionStatus struct {
	HmdPresent          int32
	HmdMounted          int32
	IsVisible           int32
	HasPositionTracking int32
}

var (
	ovrLib unsafe.Pointer

	procInitialize          unsafe.Pointer
	procShutdown            unsafe.Pointer
	procCreate              unsafe.Pointer
	procDestroy             unsafe.Pointer
	procGetHmdDesc          unsafe.Pointer
	procGetSessionStatus    unsafe.Pointer
	procGetTimeInSeconds    unsafe.Pointer
	procGetPredictedDisplay unsafe.Pointer
	procEndFrame            unsafe.Pointer
	procGetTrackingState    unsafe.Pointer

	cifInitialize          types.CallInterface
	cifShutdown            types.CallInterface
	cifCreate              types.CallInterface
	cifDestroy             types.CallInterface
	cifGetHmdDesc          types.CallInterface
	cifGetSessionStatus    types.CallInterface
	cifGetTimeInSeconds    types.CallInterface
	cifGetPredictedDisplay types.CallInterface
	cifEndFrame            types.CallInterface
	cifGetTrackingState    types.CallInterface

	initOnce sync.Once
	initErr  error
)

// Init loads the streaming driver's client DLL and prepares the call
// signatures this package uses. Safe to call multiple times.
func Init() error {
	initOnce.Do(func() { initErr = doInit() })
	return initErr
}

func doInit() error {
	var err error
	ovrLib, err = ffi.LoadLibrary("LibOVRRT64_1.dll")
	if err != nil {
		return fmt.Errorf("ovr: failed to load LibOVRRT64_1.dll: %w", err)
	}

	var loadErr error
	bind := func(name string, dst *unsafe.Pointer) {
		if loadErr != nil {
			return
		}
		*dst, loadErr = ffi.GetSymbol(ovrLib, name)
	}
	bind("ovr_Initialize", &procInitialize)
	bind("ovr_Shutdown", &procShutdown)
	bind("ovr_Create", &procCreate)
	bind("ovr_Destroy", &procDestroy)
	bind("ovr_GetHmdDesc", &procGetHmdDesc)
	bind("ovr_GetSessionStatus", &procGetSessionStatus)
	bind("ovr_GetTimeInSeconds", &procGetTimeInSeconds)
	bind("ovr_GetPredictedDisplayTime", &procGetPredictedDisplay)
	bind("ovr_EndFrame", &procEndFrame)
	bind("ovr_GetTrackingState", &procGetTrackingState)
	if loadErr != nil {
		return fmt.Errorf("ovr: symbol lookup failed: %w", loadErr)
	}

	u64 := types.UInt64TypeDescriptor
	s32 := types.SInt32TypeDescriptor
	f32 := types.FloatTypeDescriptor
	ptr := types.PointerTypeDescriptor
	void := types.VoidTypeDescriptor

	prep := func(cif *types.CallInterface, ret *types.TypeDescriptor, args []*types.TypeDescriptor) {
		if err != nil {
			return
		}
		err = ffi.PrepareCallInterface(cif, types.DefaultCall, ret, args)
	}
	// ovr_Initialize(const ovrInitParams*) is called with a null params
	// pointer here, matching the ovrInitParams{} default system.cpp falls
	// back to when no override path is configured.
	prep(&cifInitialize, s32, []*types.TypeDescriptor{ptr})
	prep(&cifShutdown, void, nil)
	prep(&cifCreate, s32, []*types.TypeDescriptor{ptr, ptr})
	prep(&cifDestroy, void, []*types.TypeDescriptor{u64})
	prep(&cifGetHmdDesc, s32, []*types.TypeDescriptor{u64, ptr})
	prep(&cifGetSessionStatus, s32, []*types.TypeDescriptor{u64, ptr})
	prep(&cifGetTimeInSeconds, f32, nil)
	prep(&cifGetPredictedDisplay, f32, []*types.TypeDescriptor{u64, u64})
	prep(&cifEndFrame, s32, []*types.TypeDescriptor{u64, u64})
	prep(&cifGetTrackingState, s32, []*types.TypeDescriptor{u64, f32, ptr})
	if err != nil {
		return fmt.Errorf("ovr: failed to prepare call interfaces: %w", err)
	}
	return nil
}

func ovrInitialize() int32 {
	var result int32
	var nullParams unsafe.Pointer
	args := []unsafe.Pointer{unsafe.Pointer(&nullParams)}
	_ = ffi.CallFunction(&cifInitialize, procInitialize, unsafe.Pointer(&result), args)
	return result
}

func ovrShutdown() {
	_ = ffi.CallFunction(&cifShutdown, procShutdown, nil, nil)
}

func ovrCreate(session *uint64, luid *xr.AdapterLUID) int32 {
	var result int32
	sessionPtr := unsafe.Pointer(session)
	luidPtr := unsafe.Pointer(luid)
	args := []unsafe.Pointer{unsafe.Pointer(&sessionPtr), unsafe.Pointer(&luidPtr)}
	_ = ffi.CallFunction(&cifCreate, procCreate, unsafe.Pointer(&result), args)
	return result
}

func ovrDestroy(session uint64) {
	args := []unsafe.Pointer{unsafe.Pointer(&session)}
	_ = ffi.CallFunction(&cifDestroy, procDestroy, nil, args)
}

func ovrGetHmdDesc(session uint64, desc *nativeHmdDesc) int32 {
	var result int32
	descPtr := unsafe.Pointer(desc)
	args := []unsafe.Pointer{unsafe.Pointer(&session), unsafe.Pointer(&descPtr)}
	_ = ffi.CallFunction(&cifGetHmdDesc, procGetHmdDesc, unsafe.Pointer(&result), args)
	return result
}

func ovrGetSessionStatus(session uint64, status *nativeSessionStatus) int32 {
	var result int32
	statusPtr := unsafe.Pointer(status)
	args := []unsafe.Pointer{unsafe.Pointer(&session), unsafe.Pointer(&statusPtr)}
	_ = ffi.CallFunction(&cifGetSessionStatus, procGetSessionStatus, unsafe.Pointer(&result), args)
	return result
}

func ovrGetTimeInSeconds() float32 {
	var result float32
	_ = ffi.CallFunction(&cifGetTimeInSeconds, procGetTimeInSeconds, unsafe.Pointer(&result), nil)
	return result
}

func ovrGetPredictedDisplayTime(session, frameIndex uint64) float32 {
	var result float32
	args := []unsafe.Pointer{unsafe.Pointer(&session), unsafe.Pointer(&frameIndex)}
	_ = ffi.CallFunction(&cifGetPredictedDisplay, procGetPredictedDisplay, unsafe.Pointer(&result), args)
	return result
}

func ovrEndFrame(session, frameIndex uint64) int32 {
	var result int32
	args := []unsafe.Pointer{unsafe.Pointer(&session), unsafe.Pointer(&frameIndex)}
	_ = ffi.CallFunction(&cifEndFrame, procEndFrame, unsafe.Pointer(&result), args)
	return result
}

func ovrGetTrackingState(session uint64, t float32, pose *xr.Posef) int32 {
	var result int32
	posePtr := unsafe.Pointer(pose)
	args := []unsafe.Pointer{unsafe.Pointer(&session), unsafe.Pointer(&t), unsafe.Pointer(&posePtr)}
	_ = ffi.CallFunction(&cifGetTrackingState, procGetTrackingState, unsafe.Pointer(&result), args)
	return result
}
