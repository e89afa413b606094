// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build windows

package ovr_test

import (
	"testing"

	"github.com/vrshim/openxr-runtime/backendsdk"
	_ "github.com/vrshim/openxr-runtime/backendsdk/ovr"
)

func TestRegistersOVRVariant(t *testing.T) {
	b, ok := backendsdk.Get(backendsdk.VariantOVR)
	if !ok {
		t.Fatal("Get(VariantOVR) ok = false, want true (ovr registers itself in init)")
	}
	if b.Variant() != backendsdk.VariantOVR {
		t.Errorf("Variant() = %v, want %v", b.Variant(), backendsdk.VariantOVR)
	}
}

// TestOpenWithoutDriverFails documents that Open fails cleanly (rather than
// panicking) when LibOVRRT64_1.dll isn't present, the expected state on a
// machine without the streaming driver installed.
func TestOpenWithoutDriverFails(t *testing.T) {
	b, _ := backendsdk.Get(backendsdk.VariantOVR)
	if _, err := b.Open("test-app"); err == nil {
		t.Skip("LibOVRRT64_1.dll present on this machine; nothing to assert")
	}
}
