package instance

import (
	"errors"
	"testing"

	"github.com/vrshim/openxr-runtime/xr"
)

func resetSingleton() {
	liveMu.Lock()
	liveInstance = false
	singleton = nil
	liveMu.Unlock()
}

func TestNewRejectsUnsupportedAPIVersion(t *testing.T) {
	resetSingleton()
	_, err := New("app", nil, 2)
	if !errors.Is(err, ErrAPIVersionUnsupported) {
		t.Fatalf("New() error = %v, want ErrAPIVersionUnsupported", err)
	}
}

func TestNewRejectsUnknownExtension(t *testing.T) {
	resetSingleton()
	_, err := New("app", []string{"XR_NOT_A_REAL_EXTENSION"}, 1)
	if !errors.Is(err, ErrExtensionNotPresent) {
		t.Fatalf("New() error = %v, want ErrExtensionNotPresent", err)
	}
}

func TestNewEnforcesSingleInstance(t *testing.T) {
	resetSingleton()
	inst, err := New("app", []string{"XR_KHR_D3D11_enable"}, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer inst.Destroy()

	if _, err := New("app2", nil, 1); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second New() error = %v, want ErrAlreadyExists", err)
	}

	inst.Destroy()
	if _, err := New("app3", nil, 1); err != nil {
		t.Fatalf("New() after Destroy() error = %v, want nil", err)
	} else {
		resetSingleton()
	}
}

func TestExtensionEnabled(t *testing.T) {
	resetSingleton()
	inst, err := New("app", []string{"XR_KHR_D3D11_enable"}, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer inst.Destroy()

	if !inst.ExtensionEnabled("XR_KHR_D3D11_enable") {
		t.Error("ExtensionEnabled(XR_KHR_D3D11_enable) = false, want true")
	}
	if inst.ExtensionEnabled("XR_KHR_vulkan_enable") {
		t.Error("ExtensionEnabled(XR_KHR_vulkan_enable) = true, want false (never requested)")
	}
}

func TestStringToPathInterningAndRoundTrip(t *testing.T) {
	resetSingleton()
	inst, err := New("app", nil, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer inst.Destroy()

	p1 := inst.StringToPath("/user/hand/left/input/trigger/value")
	p2 := inst.StringToPath("/user/hand/left/input/trigger/value")
	if p1 != p2 {
		t.Errorf("StringToPath called twice with same string returned different paths: %v vs %v", p1, p2)
	}

	s, ok := inst.PathToString(p1)
	if !ok || s != "/user/hand/left/input/trigger/value" {
		t.Errorf("PathToString(p1) = (%q, %v), want the original string", s, ok)
	}

	other := inst.StringToPath("/user/hand/right/input/trigger/value")
	if other == p1 {
		t.Error("distinct strings interned to the same Path")
	}
}

func TestGetSystemCachesAndPropagatesLoadError(t *testing.T) {
	resetSingleton()
	inst, err := New("app", nil, 1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer inst.Destroy()

	wantErr := errors.New("no HMD connected")
	calls := 0
	load := func() (HMDInfo, error) {
		calls++
		return HMDInfo{}, wantErr
	}
	if _, err := inst.GetSystem(load); !errors.Is(err, wantErr) {
		t.Fatalf("GetSystem() error = %v, want %v", err, wantErr)
	}

	load2 := func() (HMDInfo, error) {
		calls++
		return HMDInfo{VendorName: "Acme", RefreshRateHz: 90}, nil
	}
	sys, err := inst.GetSystem(load2)
	if err != nil {
		t.Fatalf("GetSystem() error = %v", err)
	}
	if !sys.Created {
		t.Error("System.Created = false, want true")
	}

	// Second successful call must not re-invoke load.
	if _, err := inst.GetSystem(load2); err != nil {
		t.Fatalf("second GetSystem() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("load invoked %d times, want 2 (one failing, one succeeding, then cached)", calls)
	}

	info, ok := inst.HMD()
	if !ok || info.VendorName != "Acme" {
		t.Errorf("HMD() = (%+v, %v), want cached Acme info", info, ok)
	}
}

func TestCalibrationRoundTrip(t *testing.T) {
	const freq = 10_000_000 // 10 MHz, typical QPC frequency
	const fixedOffset = 1000.0 // seconds

	sample := int64(0)
	reader := func() (int64, int64, float64) {
		sample += freq / 1000 // advance 1ms of ticks each sample
		backendSecs := float64(sample)/float64(freq) + fixedOffset
		return sample, freq, backendSecs
	}

	cal := Calibrate(reader)

	qpc := int64(123_456_789)
	t1 := cal.QPCToXrTime(qpc)
	qpcBack := cal.XrTimeToQPC(t1)

	diff := qpcBack - qpc
	if diff < -1 || diff > 1 {
		t.Errorf("round trip QPC %d -> XrTime %v -> QPC %d, diff %d exceeds 1 tick", qpc, t1, qpcBack, diff)
	}
}

func TestBackendSecondsToXrTime(t *testing.T) {
	got := BackendSecondsToXrTime(1.5)
	want := xr.FromNanoseconds(1_500_000_000)
	if got != want {
		t.Errorf("BackendSecondsToXrTime(1.5) = %v, want %v", got, want)
	}
}
