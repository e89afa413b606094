// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package vulkan, ffi.go: the goffi call plumbing every other file in this
// package builds on. hal/vulkan/vk loads Vulkan entirely through
// github.com/go-webgpu/goffi (see vk/loader.go, vk/signatures.go) rather
// than syscall.SyscallN, since libffi's calling convention is what lets the
// same Go binary run against vulkan-1.dll, libvulkan.so.1 or MoltenVK
// without per-platform cgo shims. This bridge reuses vk.Init/vk.InitSignatures
// and the Sig* call-interface templates vk/signatures.go already prepares,
// adding only the one signature shape (vkCmdPushConstants) that catalog
// doesn't carry.
package vulkan

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"

	"github.com/vrshim/openxr-runtime/hal/vulkan/vk"
)

var (
	initOnce sync.Once
	initErr  error
)

// ensureInit loads the Vulkan loader library and prepares every Sig*
// CallInterface template vk/signatures.go declares, once per process.
func ensureInit() error {
	initOnce.Do(func() {
		if err := vk.Init(); err != nil {
			initErr = fmt.Errorf("vulkan: init: %w", err)
			return
		}
		if err := vk.InitSignatures(); err != nil {
			initErr = fmt.Errorf("vulkan: init signatures: %w", err)
			return
		}
		initErr = prepareExtraSignatures()
	})
	return initErr
}

var sigCmdPushConstants types.CallInterface

// prepareExtraSignatures builds the one CallInterface vk/signatures.go's
// catalog omits: vkCmdPushConstants's (handle, handle, u32, u32, u32, ptr)
// shape has no reusable twin among the ~30 templates vk/signatures.go
// already carries.
func prepareExtraSignatures() error {
	return ffi.PrepareCallInterface(&sigCmdPushConstants, types.DefaultCall, types.VoidTypeDescriptor,
		[]*types.TypeDescriptor{
			types.UInt64TypeDescriptor,
			types.UInt64TypeDescriptor,
			types.UInt32TypeDescriptor,
			types.UInt32TypeDescriptor,
			types.UInt32TypeDescriptor,
			types.PointerTypeDescriptor,
		})
}

// call invokes proc through the given signature, goffi-style: every element
// of args must be a pointer to where that argument's value lives, per
// hal/vulkan/vk/loader.go's calling convention doc comment.
func call(sig *types.CallInterface, proc unsafe.Pointer, result unsafe.Pointer, args ...unsafe.Pointer) error {
	if proc == nil {
		return fmt.Errorf("vulkan: function not loaded")
	}
	return ffi.CallFunction(sig, proc, result, args)
}

// callResult is call for VkResult-returning functions; it returns the
// decoded vk.Result alongside any goffi dispatch error.
func callResult(sig *types.CallInterface, proc unsafe.Pointer, args ...unsafe.Pointer) (vk.Result, error) {
	var r int32
	if err := call(sig, proc, unsafe.Pointer(&r), args...); err != nil {
		return 0, err
	}
	return vk.Result(r), nil
}

func instanceProc(instance vk.Instance, name string) unsafe.Pointer {
	return vk.GetInstanceProcAddr(instance, name)
}

func deviceProc(device vk.Device, name string) unsafe.Pointer {
	return vk.GetDeviceProcAddr(device, name)
}

// ptrArg wraps a C pointer-typed argument (p) for goffi, which expects a
// pointer TO the pointer value, not the pointer itself.
func ptrArg(p unsafe.Pointer) unsafe.Pointer { return unsafe.Pointer(&p) }
