package openxr

import (
	"errors"
	"testing"

	_ "github.com/vrshim/openxr-runtime/backendsdk/stub"
	"github.com/vrshim/openxr-runtime/internal/fixup"
	"github.com/vrshim/openxr-runtime/internal/session"
	"github.com/vrshim/openxr-runtime/internal/submission"
	"github.com/vrshim/openxr-runtime/xr"
)

// fakeProvider is a submission.Provider that always succeeds, for
// exercising xrCreateSession without a real GPU.
type fakeProvider struct{}

func (fakeProvider) EnumerateAdapters() ([]submission.AdapterInfo, error) {
	return []submission.AdapterInfo{{LUID: testLUID, Name: "test adapter"}}, nil
}
func (fakeProvider) CreateD3D11Device(luid xr.AdapterLUID) (any, error) { return "device", nil }
func (fakeProvider) QueryFenceCapableInterfaces(deviceHandle any) error { return nil }
func (fakeProvider) CreateTimelineFence(deviceHandle any) (any, uintptr, error) {
	return "fence", 1, nil
}
func (fakeProvider) CompileFixupShaders() (submission.FixupShaderSet, error) {
	return submission.FixupShaderSet{}, nil
}
func (fakeProvider) CreateSamplerAndRasterizerState(deviceHandle any) error { return nil }
func (fakeProvider) DebugToolLoaded() bool                                 { return false }
func (fakeProvider) CreateDebugDummySwapchain(deviceHandle any) error      { return nil }

type fakeOps struct{}

func (fakeOps) CopySubresourceRegion(src fixup.Image, srcSub uint32, dst fixup.Image, dstSub uint32) {
}
func (fakeOps) DispatchAlphaCorrect(src, resolved fixup.Image, arraySize, constants, w, h uint32) {}
func (fakeOps) DispatchSRGBConvert(resolved, dst fixup.Image)                                     {}
func (fakeOps) DispatchDepthResolve(src, dst fixup.Image, arraySize, w, h uint32)                  {}
func (fakeOps) DispatchEASU(src, dst fixup.Image, sw, sh, dw, dh uint32)                           {}
func (fakeOps) DispatchCAS(src, dst fixup.Image, w, h uint32)                                      {}

type fakeBridge struct{}

func (fakeBridge) Provider() submission.Provider { return fakeProvider{} }
func (fakeBridge) Ops() fixup.Ops                { return fakeOps{} }

var testLUID = xr.AdapterLUID{Low: 11, High: 22}

func init() {
	RegisterGraphicsBridge(xr.GraphicsAPID3D11, fakeBridge{})
}

func newTestRuntime(t *testing.T) (*Runtime, xr.Instance) {
	t.Helper()
	r := NewRuntime()
	h, res := r.CreateInstance(CreateInstanceInfo{ApplicationName: "test", APIVersionMajor: 1})
	if res != xr.Success {
		t.Fatalf("CreateInstance() result = %v", res)
	}
	t.Cleanup(func() { r.DestroyInstance(h) })
	return r, h
}

func mustGetSystem(t *testing.T, r *Runtime, h xr.Instance) xr.SystemID {
	t.Helper()
	sys, res := r.GetSystem(h, 1)
	if res != xr.Success {
		t.Fatalf("GetSystem() result = %v", res)
	}
	return sys
}

func TestCreateInstanceRejectsUnsupportedAPIVersion(t *testing.T) {
	r := NewRuntime()
	_, res := r.CreateInstance(CreateInstanceInfo{APIVersionMajor: 2})
	if res != xr.ErrorAPIVersionUnsupported {
		t.Fatalf("CreateInstance(APIVersionMajor=2) result = %v, want ErrorAPIVersionUnsupported", res)
	}
}

func TestCreateInstanceThenDestroyAllowsRecreate(t *testing.T) {
	r := NewRuntime()
	h1, res := r.CreateInstance(CreateInstanceInfo{APIVersionMajor: 1})
	if res != xr.Success {
		t.Fatalf("first CreateInstance() result = %v", res)
	}
	if res := r.DestroyInstance(h1); res != xr.Success {
		t.Fatalf("DestroyInstance() result = %v", res)
	}
	if _, res := r.CreateInstance(CreateInstanceInfo{APIVersionMajor: 1}); res != xr.Success {
		t.Fatalf("second CreateInstance() result = %v", res)
	}
}

func TestGetInstancePropertiesRejectsUnknownHandle(t *testing.T) {
	r := NewRuntime()
	if _, res := r.GetInstanceProperties(xr.Instance(999)); res != xr.ErrorHandleInvalid {
		t.Fatalf("GetInstanceProperties(unknown) result = %v, want ErrorHandleInvalid", res)
	}
}

func TestGetSystemRejectsWrongFormFactor(t *testing.T) {
	r, h := newTestRuntime(t)
	if _, res := r.GetSystem(h, 2); res != xr.ErrorFormFactorUnsupported {
		t.Fatalf("GetSystem(formFactor=2) result = %v, want ErrorFormFactorUnsupported", res)
	}
}

func TestGetSystemOpensBackendAndCaches(t *testing.T) {
	r, h := newTestRuntime(t)
	sys1 := mustGetSystem(t, r, h)
	sys2 := mustGetSystem(t, r, h)
	if sys1 != sys2 {
		t.Errorf("GetSystem() second call = %v, want same SystemID %v", sys2, sys1)
	}
}

func TestCreateSessionRequiresGraphicsRequirementsCall(t *testing.T) {
	r, h := newTestRuntime(t)
	mustGetSystem(t, r, h)

	binding := session.GraphicsBinding{API: xr.GraphicsAPID3D11, DeviceLUID: testLUID}
	if _, res := r.CreateSession(h, binding); res != xr.ErrorGraphicsRequirementsCallMissing {
		t.Fatalf("CreateSession() without requirements call result = %v, want ErrorGraphicsRequirementsCallMissing", res)
	}
}

func TestCreateSessionRejectsLUIDMismatch(t *testing.T) {
	r, h := newTestRuntime(t)
	mustGetSystem(t, r, h)
	if _, res := r.GetGraphicsRequirements(h, xr.GraphicsAPID3D11); res != xr.Success {
		t.Fatalf("GetGraphicsRequirements() result = %v", res)
	}

	binding := session.GraphicsBinding{API: xr.GraphicsAPID3D11, DeviceLUID: xr.AdapterLUID{Low: 1}}
	if _, res := r.CreateSession(h, binding); res != xr.ErrorGraphicsDeviceInvalid {
		t.Fatalf("CreateSession() with mismatched LUID result = %v, want ErrorGraphicsDeviceInvalid", res)
	}
}

func TestFullSessionAndFrameLifecycle(t *testing.T) {
	r, h := newTestRuntime(t)
	mustGetSystem(t, r, h)
	luid, res := r.GetGraphicsRequirements(h, xr.GraphicsAPID3D11)
	if res != xr.Success {
		t.Fatalf("GetGraphicsRequirements() result = %v", res)
	}

	sessHandle, res := r.CreateSession(h, session.GraphicsBinding{API: xr.GraphicsAPID3D11, DeviceLUID: luid})
	if res != xr.Success {
		t.Fatalf("CreateSession() result = %v", res)
	}

	if res := r.BeginSession(sessHandle); res != xr.ErrorSessionNotReady {
		t.Fatalf("BeginSession() before READY result = %v, want ErrorSessionNotReady", res)
	}

	if _, _, res := r.WaitFrame(sessHandle); res != xr.Success {
		t.Fatalf("WaitFrame() result = %v", res)
	}
	if res := r.BeginFrame(sessHandle); res != xr.Success {
		t.Fatalf("BeginFrame() result = %v", res)
	}
	info := xr.FrameEndInfo{EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque}
	if res := r.EndFrame(sessHandle, info); res != xr.Success {
		t.Fatalf("EndFrame() result = %v", res)
	}

	if res := r.DestroySession(sessHandle); res != xr.Success {
		t.Fatalf("DestroySession() result = %v", res)
	}
}

func TestCreateSessionRejectsSecondConcurrentSession(t *testing.T) {
	r, h := newTestRuntime(t)
	mustGetSystem(t, r, h)
	luid, _ := r.GetGraphicsRequirements(h, xr.GraphicsAPID3D11)
	binding := session.GraphicsBinding{API: xr.GraphicsAPID3D11, DeviceLUID: luid}

	if _, res := r.CreateSession(h, binding); res != xr.Success {
		t.Fatalf("first CreateSession() result = %v", res)
	}
	if _, res := r.CreateSession(h, binding); res != xr.ErrorLimitReached {
		t.Fatalf("second concurrent CreateSession() result = %v, want ErrorLimitReached", res)
	}
}

func TestStringToPathRoundTrip(t *testing.T) {
	r, h := newTestRuntime(t)
	p1, res := r.StringToPath(h, "/user/hand/left")
	if res != xr.Success {
		t.Fatalf("StringToPath() result = %v", res)
	}
	p2, _ := r.StringToPath(h, "/user/hand/left")
	if p1 != p2 {
		t.Errorf("StringToPath() not idempotent: %v != %v", p1, p2)
	}
	s, res := r.PathToString(h, p1)
	if res != xr.Success || s != "/user/hand/left" {
		t.Errorf("PathToString() = (%q, %v), want (%q, Success)", s, res, "/user/hand/left")
	}
}

func TestGetVisibilityMaskRejectsBadEye(t *testing.T) {
	r, h := newTestRuntime(t)
	mustGetSystem(t, r, h)
	luid, _ := r.GetGraphicsRequirements(h, xr.GraphicsAPID3D11)
	sessHandle, _ := r.CreateSession(h, session.GraphicsBinding{API: xr.GraphicsAPID3D11, DeviceLUID: luid})

	if _, res := r.GetVisibilityMask(sessHandle, 2); res != xr.ErrorValidationFailure {
		t.Fatalf("GetVisibilityMask(eye=2) result = %v, want ErrorValidationFailure", res)
	}
	mask, res := r.GetVisibilityMask(sessHandle, 0)
	if res != xr.Success || len(mask) == 0 {
		t.Fatalf("GetVisibilityMask(eye=0) = (%v, %v)", mask, res)
	}
}

func TestNegotiateRejectsOutOfRangeInterfaceVersion(t *testing.T) {
	_, err := Negotiate(LoaderInfo{MinInterfaceVersion: 2, MaxInterfaceVersion: 5, MinAPIVersion: 0, MaxAPIVersion: CurrentAPIVersion})
	if !errors.Is(err, ErrLoaderInterfaceVersionUnsupported) {
		t.Fatalf("Negotiate() error = %v, want ErrLoaderInterfaceVersionUnsupported", err)
	}
}

func TestNegotiateRejectsOutOfRangeAPIVersion(t *testing.T) {
	_, err := Negotiate(LoaderInfo{MinInterfaceVersion: 1, MaxInterfaceVersion: 1, MinAPIVersion: CurrentAPIVersion + 1, MaxAPIVersion: CurrentAPIVersion + 2})
	if !errors.Is(err, ErrAPIVersionRangeUnsupported) {
		t.Fatalf("Negotiate() error = %v, want ErrAPIVersionRangeUnsupported", err)
	}
}

func TestNegotiateSucceeds(t *testing.T) {
	res, err := Negotiate(LoaderInfo{MinInterfaceVersion: 1, MaxInterfaceVersion: 1, MinAPIVersion: 0, MaxAPIVersion: CurrentAPIVersion})
	if err != nil {
		t.Fatalf("Negotiate() error = %v", err)
	}
	if res.RuntimeAPIVersion != CurrentAPIVersion {
		t.Errorf("RuntimeAPIVersion = %#x, want %#x", res.RuntimeAPIVersion, CurrentAPIVersion)
	}
}

func TestGetInstanceProcAddrResolvesRegisteredName(t *testing.T) {
	r, h := newTestRuntime(t)
	RegisterProcAddr("xrTestFunction", nil)
	if _, res := r.GetInstanceProcAddr(h, "xrTestFunction"); res != xr.Success {
		t.Fatalf("GetInstanceProcAddr(registered) result = %v", res)
	}
	if _, res := r.GetInstanceProcAddr(h, "xrNoSuchFunction"); res != xr.ErrorFunctionUnsupported {
		t.Fatalf("GetInstanceProcAddr(unregistered) result = %v, want ErrorFunctionUnsupported", res)
	}
}

func TestGetInstanceProcAddrAllowsCreateInstanceWithNullHandle(t *testing.T) {
	r := NewRuntime()
	RegisterProcAddr("xrCreateInstance", nil)
	if _, res := r.GetInstanceProcAddr(0, "xrCreateInstance"); res != xr.Success {
		t.Fatalf("GetInstanceProcAddr(null instance, xrCreateInstance) result = %v", res)
	}
}
