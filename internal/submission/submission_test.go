package submission

import (
	"errors"
	"testing"

	"github.com/vrshim/openxr-runtime/xr"
)

type fakeProvider struct {
	adapters         []AdapterInfo
	enumerateErr     error
	createDeviceErr  error
	queryFenceErr    error
	createFenceErr   error
	compileErr       error
	samplerErr       error
	debugLoaded      bool
	dummySwapchainErr error
}

func (f *fakeProvider) EnumerateAdapters() ([]AdapterInfo, error) {
	return f.adapters, f.enumerateErr
}
func (f *fakeProvider) CreateD3D11Device(luid xr.AdapterLUID) (any, error) {
	return "device-handle", f.createDeviceErr
}
func (f *fakeProvider) QueryFenceCapableInterfaces(deviceHandle any) error {
	return f.queryFenceErr
}
func (f *fakeProvider) CreateTimelineFence(deviceHandle any) (any, uintptr, error) {
	return "fence-handle", 0x1234, f.createFenceErr
}
func (f *fakeProvider) CompileFixupShaders() (FixupShaderSet, error) {
	return FixupShaderSet{AlphaCorrectTex2D: []byte{1}}, f.compileErr
}
func (f *fakeProvider) CreateSamplerAndRasterizerState(deviceHandle any) error {
	return f.samplerErr
}
func (f *fakeProvider) DebugToolLoaded() bool { return f.debugLoaded }
func (f *fakeProvider) CreateDebugDummySwapchain(deviceHandle any) error {
	return f.dummySwapchainErr
}

func testLUID() xr.AdapterLUID { return xr.AdapterLUID{Low: 1, High: 2} }

func TestNewSelectsAdapterByLUID(t *testing.T) {
	p := &fakeProvider{adapters: []AdapterInfo{
		{LUID: xr.AdapterLUID{Low: 9, High: 9}, Name: "wrong"},
		{LUID: testLUID(), Name: "right"},
	}}
	d, err := New(p, "d3d11", testLUID())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.Adapter.Name != "right" {
		t.Errorf("Adapter = %+v, want the one matching the HMD LUID", d.Adapter)
	}
}

func TestNewFailsWhenNoAdapterMatches(t *testing.T) {
	p := &fakeProvider{adapters: []AdapterInfo{{LUID: xr.AdapterLUID{Low: 9}}}}
	if _, err := New(p, "d3d11", testLUID()); err == nil {
		t.Fatal("New() with no matching adapter returned nil error")
	}
}

func TestNewPropagatesEachStepFailure(t *testing.T) {
	base := func() *fakeProvider {
		return &fakeProvider{adapters: []AdapterInfo{{LUID: testLUID()}}}
	}
	cases := []struct {
		name   string
		modify func(*fakeProvider)
	}{
		{"enumerate", func(p *fakeProvider) { p.enumerateErr = errors.New("fail") }},
		{"createDevice", func(p *fakeProvider) { p.createDeviceErr = errors.New("fail") }},
		{"queryFence", func(p *fakeProvider) { p.queryFenceErr = errors.New("fail") }},
		{"createFence", func(p *fakeProvider) { p.createFenceErr = errors.New("fail") }},
		{"compile", func(p *fakeProvider) { p.compileErr = errors.New("fail") }},
		{"sampler", func(p *fakeProvider) { p.samplerErr = errors.New("fail") }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := base()
			c.modify(p)
			if _, err := New(p, "d3d11", testLUID()); err == nil {
				t.Errorf("New() with %s failing returned nil error", c.name)
			}
		})
	}
}

func TestNewCreatesDummySwapchainWhenDebugToolLoaded(t *testing.T) {
	p := &fakeProvider{adapters: []AdapterInfo{{LUID: testLUID()}}, debugLoaded: true}
	d, err := New(p, "d3d11", testLUID())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !d.DummySwapchainOpen {
		t.Error("DummySwapchainOpen = false, want true when a debug tool is loaded")
	}
}

func TestNewSkipsDummySwapchainWhenNoDebugTool(t *testing.T) {
	p := &fakeProvider{adapters: []AdapterInfo{{LUID: testLUID()}}, debugLoaded: false}
	d, err := New(p, "d3d11", testLUID())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.DummySwapchainOpen {
		t.Error("DummySwapchainOpen = true, want false when no debug tool is loaded")
	}
}

func TestSignalIncrementsMonotonically(t *testing.T) {
	d := &Device{}
	if v := d.Signal(); v != 1 {
		t.Errorf("first Signal() = %d, want 1", v)
	}
	if v := d.Signal(); v != 2 {
		t.Errorf("second Signal() = %d, want 2", v)
	}
}
