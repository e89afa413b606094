package backendsdk_test

import (
	"testing"

	"github.com/vrshim/openxr-runtime/backendsdk"
	_ "github.com/vrshim/openxr-runtime/backendsdk/stub"
)

func TestGetRegisteredStubBackend(t *testing.T) {
	b, ok := backendsdk.Get(backendsdk.VariantStub)
	if !ok {
		t.Fatal("Get(VariantStub) ok = false, want true (stub registers itself in init)")
	}
	if b.Variant() != backendsdk.VariantStub {
		t.Errorf("Variant() = %v, want %v", b.Variant(), backendsdk.VariantStub)
	}
}

func TestGetUnregisteredBackend(t *testing.T) {
	if _, ok := backendsdk.Get(backendsdk.Variant("not-a-real-variant")); ok {
		t.Error("Get() of unregistered variant returned ok = true")
	}
}

func TestOpenAndPollStatus(t *testing.T) {
	b, _ := backendsdk.Get(backendsdk.VariantStub)
	sess, err := b.Open("test-app")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sess.Close()

	status := sess.PollStatus()
	if !status.Connected || !status.Visible || !status.Mounted {
		t.Errorf("PollStatus() = %+v, want everything true by default", status)
	}

	_, _, refresh, luid, _, _, err := sess.HMDInfo()
	if err != nil {
		t.Fatalf("HMDInfo() error = %v", err)
	}
	if refresh <= 0 {
		t.Errorf("HMDInfo() refreshRateHz = %v, want > 0", refresh)
	}
	if luid.IsZero() {
		t.Error("HMDInfo() adapterLUID is zero")
	}
}
