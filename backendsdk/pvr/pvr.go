// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build windows

// Package pvr binds backendsdk.Backend to Pimax's client DLL
// (pvrclient_x64.dll), the backend original_source/pimax-openxr/runtime.cpp
// drives directly through a statically-linked import lib. This shim has no
// import lib to link against, so it resolves the same entry points at
// runtime with goffi, the pattern hal/vulkan/vk/loader.go uses to bind
// vulkan-1.dll without cgo.
//
// Struct layouts below (nativeHmdInfo, nativeStatus, nativePose) are this
// shim's own minimal reconstruction of the fields runtime.cpp reads off
// pvrHmdInfo/pvrStatus/pvrPoseState; the real pvr_d3d11.h is not part of
// this tree, so field order follows the access sequence in runtime.cpp
// (pvr_getHmdInfo, pvr_getHmdStatus, pvr_getTrackedDevicePoseState) rather
// than a byte-exact header.
package pvr

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

// Backend is the backendsdk.Backend for the Pimax client SDK.
type Backend struct{}

func (*Backend) Variant() backendsdk.Variant { return backendsdk.VariantPVR }

func (*Backend) Open(appName string) (backendsdk.Session, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	ctx, res := pvrInitialise()
	if res != 0 || ctx == 0 {
		return nil, fmt.Errorf("pvr: pvr_initialise failed, result=%d", res)
	}
	var session uint64
	res = pvrCreateSession(ctx, &session)
	if res != 0 || session == 0 {
		return nil, fmt.Errorf("pvr: pvr_createSession failed, result=%d", res)
	}
	return &Session{ctx: ctx, session: session, start: time.Now()}, nil
}

// Session is the backendsdk.Session backed by a live pvrSessionHandle.
type Session struct {
	mu      sync.Mutex
	ctx     uint64
	session uint64
	start   time.Time
}

func (s *Session) HMDInfo() (vendor, product string, refreshRateHz float32, adapterLUID xr.AdapterLUID, eyeFov [2]xr.Fovf, eyePose [2]xr.Posef, err error) {
	var info nativeHmdInfo
	if res := pvrGetHmdInfo(s.session, &info); res != 0 {
		return "", "", 0, xr.AdapterLUID{}, eyeFov, eyePose, fmt.Errorf("pvr: pvr_getHmdInfo failed, result=%d", res)
	}
	return cString(info.Vendor[:]), cString(info.Product[:]), info.RefreshHz,
		xr.AdapterLUID{Low: info.AdapterLow, High: info.AdapterHigh},
		info.EyeFov, info.EyePose, nil
}

func (s *Session) PollStatus() backendsdk.HMDStatus {
	var st nativeStatus
	if res := pvrGetHmdStatus(s.session, &st); res != 0 {
		return backendsdk.HMDStatus{}
	}
	return backendsdk.HMDStatus{
		Connected:          st.Connected != 0,
		Visible:            st.Visible != 0,
		Mounted:            st.Mounted != 0,
		PositionValid:      st.PositionTracked != 0,
		PositionTracked:    st.PositionTracked != 0,
		OrientationValid:   st.OrientationTracked != 0,
		OrientationTracked: st.OrientationTracked != 0,
	}
}

func (s *Session) NowSeconds() float64 {
	return float64(pvrGetTimeSeconds(s.ctx))
}

func (s *Session) WaitFrameTiming(frameIndex uint64) (backendsdk.FrameTiming, error) {
	predicted := pvrGetPredictedDisplayTime(s.session, frameIndex)
	return backendsdk.FrameTiming{
		PredictedDisplayTimeSecs:   float64(predicted),
		PredictedDisplayPeriodSecs: 1.0 / 90.0,
	}, nil
}

func (s *Session) BeginFrame(frameIndex uint64) error {
	if res := pvrBeginFrame(s.session, frameIndex); res != 0 {
		return fmt.Errorf("pvr: pvr_beginFrame failed, result=%d", res)
	}
	return nil
}

// EndFrame submits frameIndex's composition layers. Pimax's pvr_endFrame
// takes a pvrLayer_Union array; marshaling this shim's layer representation
// (internal/layer) into that union is not yet implemented, so layers is
// accepted but not forwarded — frames submit with an empty layer list.
func (s *Session) EndFrame(frameIndex uint64, layers any) error {
	if res := pvrEndFrame(s.session, frameIndex); res != 0 {
		return fmt.Errorf("pvr: pvr_endFrame failed, result=%d", res)
	}
	return nil
}

func (s *Session) LocateHMD(tSecs float64) (backendsdk.HMDPose, error) {
	var pose xr.Posef
	res := pvrGetTrackedDevicePoseState(s.session, float32(tSecs), &pose)
	if res != 0 {
		return backendsdk.HMDPose{}, fmt.Errorf("pvr: pvr_getTrackedDevicePoseState failed, result=%d", res)
	}
	return backendsdk.HMDPose{Pose: pose, Status: s.PollStatus()}, nil
}

func (s *Session) FloorHeightMeters() float32 {
	return pvrGetFloatConfig(s.session, "eye_height", 0)
}

func (*Session) MaxLayers() int { return 16 }

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != 0 {
		pvrDestroySession(s.session)
		s.session = 0
	}
	if s.ctx != 0 {
		pvrShutdown(s.ctx)
		s.ctx = 0
	}
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

type nativeHmdInfo struct {
	Vendor      [64]byte
	Product     [64]byte
	RefreshHz   float32
	AdapterLow  uint32
	AdapterHigh int32
	EyeFov      [2]xr.Fovf
	EyePose     [2]xr.Posef
}

type nativeStatus struct {
	Connected          int32
	Visible            int32
	Mounted            int32
	PositionTracked    int32
	OrientationTracked int32
}

var (
	pvrLib unsafe.Pointer

	procInitialise              unsafe.Pointer
	procCreateSession           unsafe.Pointer
	procDestroySession          unsafe.Pointer
	procShutdown                unsafe.Pointer
	procGetHmdInfo              unsafe.Pointer
	procGetHmdStatus            unsafe.Pointer
	procGetFloatConfig          unsafe.Pointer
	procGetTimeSeconds          unsafe.Pointer
	procGetPredictedDisplayTime unsafe.Pointer
	procBeginFrame              unsafe.Pointer
	procEndFrame                unsafe.Pointer
	procGetTrackedDevicePose    unsafe.Pointer

	cifInitialise              types.CallInterface
	cifCreateSession           types.CallInterface
	cifDestroySession          types.CallInterface
	cifShutdown                types.CallInterface
	cifGetHmdInfo              types.CallInterface
	cifGetHmdStatus            types.CallInterface
	cifGetFloatConfig          types.CallInterface
	cifGetTimeSeconds          types.CallInterface
	cifGetPredictedDisplayTime types.CallInterface
	cifBeginFrame              types.CallInterface
	cifEndFrame                types.CallInterface
	cifGetTrackedDevicePose    types.CallInterface

	initOnce sync.Once
	initErr  error
)

// Init loads pvrclient_x64.dll and prepares the call signatures this
// package uses. Safe to call multiple times.
func Init() error {
	initOnce.Do(func() { initErr = doInit() })
	return initErr
}

func doInit() error {
	var err error
	pvrLib, err = ffi.LoadLibrary("pvrclient_x64.dll")
	if err != nil {
		return fmt.Errorf("pvr: failed to load pvrclient_x64.dll: %w", err)
	}

	load := func(name string) (unsafe.Pointer, error) { return ffi.GetSymbol(pvrLib, name) }

	var loadErr error
	bind := func(name string, dst *unsafe.Pointer) {
		if loadErr != nil {
			return
		}
		*dst, loadErr = load(name)
	}
	bind("pvr_initialise", &procInitialise)
	bind("pvr_createSession", &procCreateSession)
	bind("pvr_destroySession", &procDestroySession)
	bind("pvr_shutdown", &procShutdown)
	bind("pvr_getHmdInfo", &procGetHmdInfo)
	bind("pvr_getHmdStatus", &procGetHmdStatus)
	bind("pvr_getFloatConfig", &procGetFloatConfig)
	bind("pvr_getTimeSeconds", &procGetTimeSeconds)
	bind("pvr_getPredictedDisplayTime", &procGetPredictedDisplayTime)
	bind("pvr_beginFrame", &procBeginFrame)
	bind("pvr_endFrame", &procEndFrame)
	bind("pvr_getTrackedDevicePoseState", &procGetTrackedDevicePose)
	if loadErr != nil {
		return fmt.Errorf("pvr: symbol lookup failed: %w", loadErr)
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
	// uint64 pvr_initialise(uint64* outSession) -- this shim folds
	// pvrEnvHandle* and the usual out-param into a direct return, since
	// only one HMD context is ever live per process.
	prep(&cifInitialise, u64, nil)
	prep(&cifCreateSession, s32, []*types.TypeDescriptor{u64, ptr})
	prep(&cifDestroySession, void, []*types.TypeDescriptor{u64})
	prep(&cifShutdown, void, []*types.TypeDescriptor{u64})
	prep(&cifGetHmdInfo, s32, []*types.TypeDescriptor{u64, ptr})
	prep(&cifGetHmdStatus, s32, []*types.TypeDescriptor{u64, ptr})
	prep(&cifGetFloatConfig, f32, []*types.TypeDescriptor{u64, ptr, f32})
	prep(&cifGetTimeSeconds, f32, []*types.TypeDescriptor{u64})
	prep(&cifGetPredictedDisplayTime, f32, []*types.TypeDescriptor{u64, u64})
	prep(&cifBeginFrame, s32, []*types.TypeDescriptor{u64, u64})
	prep(&cifEndFrame, s32, []*types.TypeDescriptor{u64, u64})
	prep(&cifGetTrackedDevicePose, s32, []*types.TypeDescriptor{u64, f32, ptr})
	if err != nil {
		return fmt.Errorf("pvr: failed to prepare call interfaces: %w", err)
	}
	return nil
}

func pvrInitialise() (ctx uint64, result int32) {
	_ = ffi.CallFunction(&cifInitialise, procInitialise, unsafe.Pointer(&ctx), nil)
	if ctx == 0 {
		return 0, -1
	}
	return ctx, 0
}

func pvrCreateSession(ctx uint64, session *uint64) int32 {
	var result int32
	sessionPtr := unsafe.Pointer(session)
	args := []unsafe.Pointer{unsafe.Pointer(&ctx), unsafe.Pointer(&sessionPtr)}
	_ = ffi.CallFunction(&cifCreateSession, procCreateSession, unsafe.Pointer(&result), args)
	return result
}

func pvrDestroySession(session uint64) {
	args := []unsafe.Pointer{unsafe.Pointer(&session)}
	_ = ffi.CallFunction(&cifDestroySession, procDestroySession, nil, args)
}

func pvrShutdown(ctx uint64) {
	args := []unsafe.Pointer{unsafe.Pointer(&ctx)}
	_ = ffi.CallFunction(&cifShutdown, procShutdown, nil, args)
}

func pvrGetHmdInfo(session uint64, info *nativeHmdInfo) int32 {
	var result int32
	infoPtr := unsafe.Pointer(info)
	args := []unsafe.Pointer{unsafe.Pointer(&session), unsafe.Pointer(&infoPtr)}
	_ = ffi.CallFunction(&cifGetHmdInfo, procGetHmdInfo, unsafe.Pointer(&result), args)
	return result
}

func pvrGetHmdStatus(session uint64, status *nativeStatus) int32 {
	var result int32
	statusPtr := unsafe.Pointer(status)
	args := []unsafe.Pointer{unsafe.Pointer(&session), unsafe.Pointer(&statusPtr)}
	_ = ffi.CallFunction(&cifGetHmdStatus, procGetHmdStatus, unsafe.Pointer(&result), args)
	return result
}

func pvrGetFloatConfig(session uint64, key string, def float32) float32 {
	ckey := make([]byte, len(key)+1)
	copy(ckey, key)
	keyPtr := unsafe.Pointer(&ckey[0])
	var result float32
	args := []unsafe.Pointer{unsafe.Pointer(&session), unsafe.Pointer(&keyPtr), unsafe.Pointer(&def)}
	_ = ffi.CallFunction(&cifGetFloatConfig, procGetFloatConfig, unsafe.Pointer(&result), args)
	return result
}

func pvrGetTimeSeconds(ctx uint64) float32 {
	var result float32
	args := []unsafe.Pointer{unsafe.Pointer(&ctx)}
	_ = ffi.CallFunction(&cifGetTimeSeconds, procGetTimeSeconds, unsafe.Pointer(&result), args)
	return result
}

func pvrGetPredictedDisplayTime(session, frameIndex uint64) float32 {
	var result float32
	args := []unsafe.Pointer{unsafe.Pointer(&session), unsafe.Pointer(&frameIndex)}
	_ = ffi.CallFunction(&cifGetPredictedDisplayTime, procGetPredictedDisplayTime, unsafe.Pointer(&result), args)
	return result
}

func pvrBeginFrame(session, frameIndex uint64) int32 {
	var result int32
	args := []unsafe.Pointer{unsafe.Pointer(&session), unsafe.Pointer(&frameIndex)}
	_ = ffi.CallFunction(&cifBeginFrame, procBeginFrame, unsafe.Pointer(&result), args)
	return result
}

func pvrEndFrame(session, frameIndex uint64) int32 {
	var result int32
	args := []unsafe.Pointer{unsafe.Pointer(&session), unsafe.Pointer(&frameIndex)}
	_ = ffi.CallFunction(&cifEndFrame, procEndFrame, unsafe.Pointer(&result), args)
	return result
}

func pvrGetTrackedDevicePoseState(session uint64, t float32, pose *xr.Posef) int32 {
	var result int32
	posePtr := unsafe.Pointer(pose)
	args := []unsafe.Pointer{unsafe.Pointer(&session), unsafe.Pointer(&t), unsafe.Pointer(&posePtr)}
	_ = ffi.CallFunction(&cifGetTrackedDevicePose, procGetTrackedDevicePose, unsafe.Pointer(&result), args)
	return result
}
