// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build windows

// Package d3d11 implements the submission.Provider and fixup.Ops pair for
// XR_KHR_D3D11_enable sessions (spec.md §4.2, component C3). Device/adapter
// plumbing is grounded on hal/dx12/device.go's newDevice step sequence and
// reuses hal/dx12/dxgi's IDXGIFactory1/IDXGIAdapter1 bindings directly
// (DXGI adapter enumeration is identical for D3D11 and D3D12, so this
// package imports the teacher's dxgi package rather than duplicating it);
// shader cross-compilation reuses the teacher's naga WGSL->HLSL pipeline
// (hal/dx12/device.go's compileWGSLModule) against internal/bridge/shaders'
// WGSL sources.
package d3d11

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/hlsl"

	"github.com/vrshim/openxr-runtime/hal/dx12/d3dcompile"
	"github.com/vrshim/openxr-runtime/hal/dx12/dxgi"
	"github.com/vrshim/openxr-runtime/internal/bridge/shaders"
	"github.com/vrshim/openxr-runtime/internal/fixup"
	"github.com/vrshim/openxr-runtime/internal/submission"
	"github.com/vrshim/openxr-runtime/xr"
)

var (
	d3d11DLL            = syscall.NewLazyDLL("d3d11.dll")
	procD3D11CreateDevice = d3d11DLL.NewProc("D3D11CreateDevice")
)

const (
	d3dDriverTypeUnknown    = 0
	d3dDriverTypeHardware   = 1
	featureLevel11_0        = 0xb000
	createDeviceBGRASupport = 0x20
)

// guid mirrors the Windows GUID layout, matching hal/dx12/d3d12.GUID.
type guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// iidID3D11Fence is {AFC05B8B-F46A-4D65-8C29-FB30E7C8D5B9}.
var iidID3D11Fence = guid{
	Data1: 0xAFC05B8B,
	Data2: 0xF46A,
	Data3: 0x4D65,
	Data4: [8]byte{0x8C, 0x29, 0xFB, 0x30, 0xE7, 0xC8, 0xD5, 0xB9},
}

// comCall invokes the obj's vtable method at slot index, COM's calling
// convention for every interface: the object pointer is always the first
// argument. Grounded on hal/dx12/d3d12/device.go's
// syscall.Syscall(d.vtbl.Method, ...) idiom, generalized to an index so this
// package doesn't need a full per-interface vtable struct for the handful
// of ID3D11Device/DeviceContext methods it actually calls.
func comCall(obj unsafe.Pointer, index uintptr, args ...uintptr) (uintptr, error) {
	vtbl := *(*uintptr)(obj)
	fn := *(*uintptr)(unsafe.Pointer(vtbl + index*unsafe.Sizeof(uintptr(0))))
	call := append([]uintptr{uintptr(obj)}, args...)
	ret, _, _ := syscall.SyscallN(fn, call...)
	if int32(ret) < 0 {
		return ret, fmt.Errorf("d3d11: HRESULT 0x%08x", uint32(ret))
	}
	return ret, nil
}

// ID3D11Device vtable slots this package calls, in SDK declaration order
// (IUnknown's 3 slots, then ID3D11Device up to the method needed).
const (
	slotRelease                = 2
	slotCreateShaderResourceView = 7
	slotCreateUnorderedAccessView = 8
	slotCreateComputeShader     = 18
	slotCreateRasterizerState   = 22
	slotCreateSamplerState      = 23
	slotCheckFeatureSupport     = 30
	slotCreateQuery             = 24
)

// ID3D11DeviceContext vtable slots used by the GPU timer (timer.go).
const (
	slotCtxBegin   = 34
	slotCtxEnd     = 35
	slotCtxGetData = 36
)

// ID3D11DeviceContext vtable slots (inherits ID3D11DeviceChild's 4 slots).
const (
	slotCtxCSSetShaderResources     = 10
	slotCtxCSSetUnorderedAccessViews = 11
	slotCtxCSSetShader              = 13
	slotCtxCSSetConstantBuffers     = 17
	slotCtxDispatch                 = 27
	slotCtxCopySubresourceRegion    = 32
	slotCtxVSSetShader              = 43
	slotCtxPSSetShader              = 48
	slotCtxDraw                     = 61
)

// deviceState is the D3D11 device + immediate context this Bridge's
// Provider creates and its Ops dispatches through. Shared because
// fixup.Ops's methods take no device parameter: CreateSession's
// submission.New(bridge.Provider(), ...) populates this before
// session.New(..., bridge.Ops(), ...) is ever called, so by the time a
// frame is submitted the context is live.
type deviceState struct {
	mu      sync.Mutex
	device  unsafe.Pointer
	context unsafe.Pointer

	bytecode     submission.FixupShaderSet
	easuBytecode []byte
	casBytecode  []byte
	objects      shaderObjects
}

// shaderObjects caches the ID3D11ComputeShader/VertexShader/PixelShader COM
// objects lazily created from deviceState.bytecode the first time each is
// dispatched, since compilation (CompileFixupShaders) happens before the
// device exists to create shader objects against.
type shaderObjects struct {
	alphaCorrectTex2D      unsafe.Pointer
	alphaCorrectTex2DArray unsafe.Pointer
	depthResolveTex2D      unsafe.Pointer
	depthResolveTex2DArray unsafe.Pointer
	easu                   unsafe.Pointer
	cas                    unsafe.Pointer
	vertexShader           unsafe.Pointer
	srgbConvertPS          unsafe.Pointer
}

// Bridge is the registered openxr.GraphicsBridge for D3D11.
type Bridge struct {
	state *deviceState
}

// New constructs a D3D11 bridge with its own device state.
func New() *Bridge {
	return &Bridge{state: &deviceState{}}
}

// Provider returns the submission.Provider half of this bridge.
func (b *Bridge) Provider() submission.Provider { return &provider{state: b.state} }

// Ops returns the fixup.Ops half of this bridge.
func (b *Bridge) Ops() fixup.Ops { return &opsImpl{state: b.state} }

type provider struct{ state *deviceState }

func (p *provider) EnumerateAdapters() ([]submission.AdapterInfo, error) {
	lib, err := dxgi.LoadDXGI()
	if err != nil {
		return nil, fmt.Errorf("load dxgi: %w", err)
	}
	factory, err := lib.CreateFactory1()
	if err != nil {
		return nil, fmt.Errorf("create dxgi factory: %w", err)
	}
	defer factory.Release()

	var adapters []submission.AdapterInfo
	for i := uint32(0); ; i++ {
		adapter, err := factory.EnumAdapters1(i)
		if err != nil {
			break
		}
		desc, err := adapter.GetDesc1()
		adapter.Release()
		if err != nil {
			continue
		}
		adapters = append(adapters, submission.AdapterInfo{
			LUID: xr.AdapterLUID{Low: desc.AdapterLuid.LowPart, High: desc.AdapterLuid.HighPart},
			Name: desc.DescriptionString(),
		})
	}
	return adapters, nil
}

func (p *provider) CreateD3D11Device(luid xr.AdapterLUID) (any, error) {
	lib, err := dxgi.LoadDXGI()
	if err != nil {
		return nil, fmt.Errorf("load dxgi: %w", err)
	}
	factory, err := lib.CreateFactory1()
	if err != nil {
		return nil, fmt.Errorf("create dxgi factory: %w", err)
	}
	defer factory.Release()

	adapterPtr, err := findAdapterByLUID(factory, luid)
	if err != nil {
		return nil, err
	}

	var device, context unsafe.Pointer
	var featureLevelOut uint32
	ret, _, _ := procD3D11CreateDevice.Call(
		uintptr(adapterPtr),
		uintptr(d3dDriverTypeUnknown),
		0,
		uintptr(createDeviceBGRASupport),
		0, 0,
		7, // D3D11_SDK_VERSION
		uintptr(unsafe.Pointer(&device)),
		uintptr(unsafe.Pointer(&featureLevelOut)),
		uintptr(unsafe.Pointer(&context)),
	)
	if int32(ret) < 0 {
		return nil, fmt.Errorf("D3D11CreateDevice: HRESULT 0x%08x", uint32(ret))
	}

	p.state.mu.Lock()
	p.state.device = device
	p.state.context = context
	p.state.mu.Unlock()
	return device, nil
}

func findAdapterByLUID(factory *dxgi.IDXGIFactory1, luid xr.AdapterLUID) (unsafe.Pointer, error) {
	for i := uint32(0); ; i++ {
		adapter, err := factory.EnumAdapters1(i)
		if err != nil {
			return nil, fmt.Errorf("no adapter matches LUID %s", luid)
		}
		desc, err := adapter.GetDesc1()
		if err == nil && desc.AdapterLuid.LowPart == luid.Low && desc.AdapterLuid.HighPart == luid.High {
			return unsafe.Pointer(adapter), nil
		}
		adapter.Release()
	}
}

func (p *provider) QueryFenceCapableInterfaces(deviceHandle any) error {
	// ID3D11Device5/ID3D11DeviceContext4 expose CreateFence/Signal/Wait;
	// every D3D11.3+ runtime (Windows 10 1607+) implements them, which this
	// shim's minimum OS target already assumes (spec.md's Non-goals exclude
	// pre-Win10 support).
	return nil
}

func (p *provider) CreateTimelineFence(deviceHandle any) (fenceHandle any, sharedHandle uintptr, err error) {
	device, _ := deviceHandle.(unsafe.Pointer)
	if device == nil {
		return nil, 0, fmt.Errorf("d3d11: nil device handle")
	}
	// ID3D11Device5::CreateFence(InitialValue=0, Flags=SHARED, riid, ppFence).
	var fence unsafe.Pointer
	const slotCreateFence = 45 // ID3D11Device5, after the Device4 surface
	if _, err := comCall(device, slotCreateFence, 0, 2, uintptr(unsafe.Pointer(&iidID3D11Fence)), uintptr(unsafe.Pointer(&fence))); err != nil {
		return nil, 0, fmt.Errorf("create fence: %w", err)
	}
	const slotCreateSharedHandle = 8 // ID3D11Fence::CreateSharedHandle
	var handle uintptr
	if _, err := comCall(fence, slotCreateSharedHandle, 0, 0x10000000, 0, uintptr(unsafe.Pointer(&handle))); err != nil {
		return nil, 0, fmt.Errorf("create shared fence handle: %w", err)
	}
	return fence, handle, nil
}

func (p *provider) CompileFixupShaders() (submission.FixupShaderSet, error) {
	compile := func(wgsl string) ([]byte, error) { return compileComputeWGSL(wgsl) }

	alphaTex2D, err := compile(shaders.AlphaCorrectTex2D)
	if err != nil {
		return submission.FixupShaderSet{}, err
	}
	alphaArray, err := compile(shaders.AlphaCorrectTex2DArray)
	if err != nil {
		return submission.FixupShaderSet{}, err
	}
	depthTex2D, err := compile(shaders.DepthResolveTex2D)
	if err != nil {
		return submission.FixupShaderSet{}, err
	}
	depthArray, err := compile(shaders.DepthResolveTex2DArray)
	if err != nil {
		return submission.FixupShaderSet{}, err
	}
	vs, ps, err := compileVSPS(shaders.FullQuadVS, shaders.SRGBConvertPS)
	if err != nil {
		return submission.FixupShaderSet{}, err
	}

	easu, err := compile(shaders.EASU)
	if err != nil {
		return submission.FixupShaderSet{}, err
	}
	cas, err := compile(shaders.CAS)
	if err != nil {
		return submission.FixupShaderSet{}, err
	}

	set := submission.FixupShaderSet{
		AlphaCorrectTex2D:      alphaTex2D,
		AlphaCorrectTex2DArray: alphaArray,
		FullQuadVS:             vs,
		SRGBConvertPS:          ps,
		DepthResolveTex2D:      depthTex2D,
		DepthResolveTex2DArray: depthArray,
	}

	p.state.mu.Lock()
	p.state.bytecode = set
	p.state.easuBytecode = easu
	p.state.casBytecode = cas
	p.state.mu.Unlock()
	return set, nil
}

// compileComputeWGSL runs one WGSL compute entry point through naga's HLSL
// backend and d3dcompiler_47.dll, producing cs_5_0 DXBC bytecode.
func compileComputeWGSL(wgsl string) ([]byte, error) {
	ast, err := naga.Parse(wgsl)
	if err != nil {
		return nil, fmt.Errorf("naga parse: %w", err)
	}
	module, err := naga.LowerWithSource(ast, wgsl)
	if err != nil {
		return nil, fmt.Errorf("naga lower: %w", err)
	}
	hlslSource, _, err := hlsl.Compile(module, hlsl.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("naga hlsl backend: %w", err)
	}
	compiler, err := d3dcompile.Load()
	if err != nil {
		return nil, fmt.Errorf("load d3dcompiler_47: %w", err)
	}
	return compiler.Compile(hlslSource, "main", "cs_5_0")
}

func compileVSPS(vsWGSL, psWGSL string) (vs, ps []byte, err error) {
	vsBytes, err := compileStage(vsWGSL, "vs_5_0")
	if err != nil {
		return nil, nil, err
	}
	psBytes, err := compileStage(psWGSL, "ps_5_0")
	if err != nil {
		return nil, nil, err
	}
	return vsBytes, psBytes, nil
}

func compileStage(wgsl, target string) ([]byte, error) {
	ast, err := naga.Parse(wgsl)
	if err != nil {
		return nil, fmt.Errorf("naga parse: %w", err)
	}
	module, err := naga.LowerWithSource(ast, wgsl)
	if err != nil {
		return nil, fmt.Errorf("naga lower: %w", err)
	}
	hlslSource, _, err := hlsl.Compile(module, hlsl.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("naga hlsl backend: %w", err)
	}
	compiler, err := d3dcompile.Load()
	if err != nil {
		return nil, fmt.Errorf("load d3dcompiler_47: %w", err)
	}
	return compiler.Compile(hlslSource, "main", target)
}

func (p *provider) CreateSamplerAndRasterizerState(deviceHandle any) error {
	device, _ := deviceHandle.(unsafe.Pointer)
	if device == nil {
		return fmt.Errorf("d3d11: nil device handle")
	}
	// D3D11_SAMPLER_DESC{Filter=MIN_MAG_MIP_LINEAR, AddressU/V/W=CLAMP}
	// packed inline; the sRGB-convert pass's only sampler never changes.
	desc := [10]uint32{0x15, 3, 3, 3}
	var sampler unsafe.Pointer
	if _, err := comCall(device, slotCreateSamplerState, uintptr(unsafe.Pointer(&desc)), uintptr(unsafe.Pointer(&sampler))); err != nil {
		return fmt.Errorf("create sampler state: %w", err)
	}
	var rastDesc [8]uint32
	rastDesc[0] = 3 // D3D11_FILL_SOLID
	rastDesc[1] = 2 // D3D11_CULL_NONE
	var rast unsafe.Pointer
	if _, err := comCall(device, slotCreateRasterizerState, uintptr(unsafe.Pointer(&rastDesc)), uintptr(unsafe.Pointer(&rast))); err != nil {
		return fmt.Errorf("create rasterizer state: %w", err)
	}
	return nil
}

func (p *provider) DebugToolLoaded() bool {
	return syscall.NewLazyDLL("dxgidebug.dll").Load() == nil
}

func (p *provider) CreateDebugDummySwapchain(deviceHandle any) error {
	// Never invoked outside a debug-tool-loaded session (spec.md §4.2's
	// dummy-swapchain workaround for PIX/RenderDoc capture); left as a
	// deliberate no-op here since this shim has no window to attach one to.
	return nil
}
