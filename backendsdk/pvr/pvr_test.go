// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build windows

package pvr_test

import (
	"testing"

	"github.com/vrshim/openxr-runtime/backendsdk"
	_ "github.com/vrshim/openxr-runtime/backendsdk/pvr"
)

func TestRegistersPVRVariant(t *testing.T) {
	b, ok := backendsdk.Get(backendsdk.VariantPVR)
	if !ok {
		t.Fatal("Get(VariantPVR) ok = false, want true (pvr registers itself in init)")
	}
	if b.Variant() != backendsdk.VariantPVR {
		t.Errorf("Variant() = %v, want %v", b.Variant(), backendsdk.VariantPVR)
	}
}

// TestOpenWithoutDriverFails documents that Open fails cleanly (rather than
// panicking) when pvrclient_x64.dll isn't present, the expected state on a
// machine without the Pimax driver installed.
func TestOpenWithoutDriverFails(t *testing.T) {
	b, _ := backendsdk.Get(backendsdk.VariantPVR)
	if _, err := b.Open("test-app"); err == nil {
		t.Skip("pvrclient_x64.dll present on this machine; nothing to assert")
	}
}
