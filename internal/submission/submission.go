// Package submission implements the submission device (spec.md §4.2,
// component C2): the runtime-owned internal D3D11 device the backend is
// configured to read from, built once at Session init in the exact
// numbered step order spec.md specifies.
//
// Grounded on hal/dx12/device.go's newDevice/createCommandQueue/
// createDescriptorHeaps/createFence sequence: the teacher builds a Device
// as an ordered series of fallible construction steps, each wrapped so a
// failure anywhere tears the whole thing down (see cleanup()); Device here
// follows the same shape over Provider instead of a live D3D12 COM device,
// since the fixup shaders/fence/adapter enumeration are driven through an
// interface the internal/bridge packages implement for real.
package submission

import (
	"fmt"
	"time"

	"github.com/vrshim/openxr-runtime/xr"
)

// AdapterInfo is the result of DXGI adapter enumeration (spec.md §4.2 step 1).
type AdapterInfo struct {
	LUID xr.AdapterLUID
	Name string
}

// FixupShaderSet holds the compiled fixup shaders spec.md §4.2 step 5 lists.
type FixupShaderSet struct {
	AlphaCorrectTex2D      []byte
	AlphaCorrectTex2DArray []byte
	FullQuadVS             []byte
	SRGBConvertPS          []byte
	DepthResolveTex2D      []byte
	DepthResolveTex2DArray []byte
}

// Provider is the set of low-level operations Device's construction steps
// drive. The internal/bridge packages supply the real implementations;
// tests supply a fake.
type Provider interface {
	EnumerateAdapters() ([]AdapterInfo, error)
	CreateD3D11Device(luid xr.AdapterLUID) (deviceHandle any, err error)
	QueryFenceCapableInterfaces(deviceHandle any) error
	CreateTimelineFence(deviceHandle any) (fenceHandle any, sharedHandle uintptr, err error)
	CompileFixupShaders() (FixupShaderSet, error)
	CreateSamplerAndRasterizerState(deviceHandle any) error
	DebugToolLoaded() bool
	CreateDebugDummySwapchain(deviceHandle any) error
}

// GPUTimer is an asynchronous GPU duration query, grounded on
// gpu_timers.h's ITimer: start() marks the beginning of a GPU-timestamped
// span, stop() marks its end, and QueryMicroseconds reads back the last
// completed span's duration (0 if the query hasn't resolved yet).
type GPUTimer interface {
	Start()
	Stop()
	QueryMicroseconds(reset bool) uint64
}

// TimerProvider is implemented by a Provider whose graphics API can
// produce a native GPUTimer (gpu_timers.h only ever implements this for
// D3D11/D3D12 contexts with queryable timestamp queries). A Provider that
// doesn't implement it falls back to Device's CPU wall-clock timing.
type TimerProvider interface {
	CreateGPUTimer(deviceHandle any) (GPUTimer, error)
}

// Device is the constructed submission device.
type Device struct {
	AppGraphicsAPILabel string
	Adapter             AdapterInfo
	Handle              any
	FenceHandle         any
	FenceSharedHandle   uintptr
	FenceValue          uint64
	Shaders             FixupShaderSet
	DummySwapchainOpen  bool

	timer    GPUTimer
	cpuStart time.Time
	cpuLast  uint64
}

// New creates the submission device per spec.md §4.2, selecting the
// adapter whose LUID matches hmdLUID. Any step failing returns an error;
// per spec.md §4.2's "Failure" clause, the caller must translate this to
// XR_ERROR_RUNTIME_FAILURE.
func New(p Provider, appGraphicsAPILabel string, hmdLUID xr.AdapterLUID) (*Device, error) {
	adapters, err := p.EnumerateAdapters()
	if err != nil {
		return nil, fmt.Errorf("enumerate adapters: %w", err)
	}
	adapter, ok := findAdapter(adapters, hmdLUID)
	if !ok {
		return nil, fmt.Errorf("no adapter matches HMD LUID %s", hmdLUID)
	}

	deviceHandle, err := p.CreateD3D11Device(adapter.LUID)
	if err != nil {
		return nil, fmt.Errorf("create D3D11 device: %w", err)
	}

	if err := p.QueryFenceCapableInterfaces(deviceHandle); err != nil {
		return nil, fmt.Errorf("query fence-capable interfaces: %w", err)
	}

	fenceHandle, sharedHandle, err := p.CreateTimelineFence(deviceHandle)
	if err != nil {
		return nil, fmt.Errorf("create timeline fence: %w", err)
	}

	shaders, err := p.CompileFixupShaders()
	if err != nil {
		return nil, fmt.Errorf("compile fixup shaders: %w", err)
	}

	if err := p.CreateSamplerAndRasterizerState(deviceHandle); err != nil {
		return nil, fmt.Errorf("create sampler/rasterizer state: %w", err)
	}

	d := &Device{
		AppGraphicsAPILabel: appGraphicsAPILabel,
		Adapter:             adapter,
		Handle:              deviceHandle,
		FenceHandle:         fenceHandle,
		FenceSharedHandle:   sharedHandle,
		Shaders:             shaders,
	}

	if p.DebugToolLoaded() {
		if err := p.CreateDebugDummySwapchain(deviceHandle); err != nil {
			return nil, fmt.Errorf("create debug dummy swapchain: %w", err)
		}
		d.DummySwapchainOpen = true
	}

	if tp, ok := p.(TimerProvider); ok {
		if timer, err := tp.CreateGPUTimer(deviceHandle); err == nil {
			d.timer = timer
		}
	}

	return d, nil
}

// BeginFrameTimer marks the start of the GPU work a frame's fixup chain
// issues. Call once per frame, paired with EndFrameTimer.
func (d *Device) BeginFrameTimer() {
	if d.timer != nil {
		d.timer.Start()
		return
	}
	d.cpuStart = time.Now()
}

// EndFrameTimer marks the end of the GPU work a frame's fixup chain issued.
func (d *Device) EndFrameTimer() {
	if d.timer != nil {
		d.timer.Stop()
		return
	}
	d.cpuLast = uint64(time.Since(d.cpuStart).Microseconds())
}

// FrameTimings returns the most recently completed frame's fixup-chain
// duration in microseconds: a real GPU timestamp-query result when the
// bridge implements TimerProvider, otherwise a CPU wall-clock
// approximation spanning BeginFrameTimer to EndFrameTimer. Read-only
// diagnostics; never gates an XrResult.
func (d *Device) FrameTimings() uint64 {
	if d.timer != nil {
		return d.timer.QueryMicroseconds(true)
	}
	return d.cpuLast
}

func findAdapter(adapters []AdapterInfo, luid xr.AdapterLUID) (AdapterInfo, bool) {
	for _, a := range adapters {
		if a.LUID == luid {
			return a, true
		}
	}
	return AdapterInfo{}, false
}

// Signal advances the shared timeline fence and returns the new value.
// Per Design Notes §9, every bridge's serialize_frame/flush_queue
// increments this single monotonically increasing counter.
func (d *Device) Signal() uint64 {
	d.FenceValue++
	return d.FenceValue
}
