// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build windows

package d3d11

import (
	"fmt"
	"unsafe"

	"github.com/vrshim/openxr-runtime/internal/fixup"
)

// opsImpl is the fixup.Ops half of a Bridge: it drives the immediate
// context's compute/graphics dispatches for the fixup chain's passes
// (spec.md §4.4), created lazily from the bytecode Provider.CompileFixupShaders
// produced once the device is available.
type opsImpl struct{ state *deviceState }

func toResourcePtr(img fixup.Image) unsafe.Pointer {
	p, _ := img.(unsafe.Pointer)
	return p
}

func (o *opsImpl) ensureShader(slot *unsafe.Pointer, bytecode []byte) error {
	o.state.mu.Lock()
	defer o.state.mu.Unlock()
	if *slot != nil {
		return nil
	}
	if o.state.device == nil {
		return fmt.Errorf("d3d11: device not ready")
	}
	var shader unsafe.Pointer
	if _, err := comCall(o.state.device, slotCreateComputeShader,
		uintptr(unsafe.Pointer(&bytecode[0])), uintptr(len(bytecode)), 0, uintptr(unsafe.Pointer(&shader))); err != nil {
		return fmt.Errorf("create compute shader: %w", err)
	}
	*slot = shader
	return nil
}

// CopySubresourceRegion implements fixup.Ops via
// ID3D11DeviceContext::CopySubresourceRegion.
func (o *opsImpl) CopySubresourceRegion(src fixup.Image, srcSubresource uint32, dst fixup.Image, dstSubresource uint32) {
	ctx := o.state.context
	if ctx == nil {
		return
	}
	_, _ = comCall(ctx, slotCtxCopySubresourceRegion,
		uintptr(toResourcePtr(dst)), uintptr(dstSubresource), 0, 0, 0,
		uintptr(toResourcePtr(src)), uintptr(srcSubresource), 0)
}

func (o *opsImpl) dispatchCompute(shader unsafe.Pointer, srv, uav unsafe.Pointer, constants unsafe.Pointer, width, height uint32) {
	ctx := o.state.context
	if ctx == nil || shader == nil {
		return
	}
	_, _ = comCall(ctx, slotCtxCSSetShader, uintptr(shader), 0, 0)
	_, _ = comCall(ctx, slotCtxCSSetShaderResources, 0, 1, uintptr(unsafe.Pointer(&srv)))
	_, _ = comCall(ctx, slotCtxCSSetUnorderedAccessViews, 0, 1, uintptr(unsafe.Pointer(&uav)), 0)
	if constants != nil {
		_, _ = comCall(ctx, slotCtxCSSetConstantBuffers, 0, 1, uintptr(unsafe.Pointer(&constants)))
	}
	groupsX := (width + 7) / 8
	groupsY := (height + 7) / 8
	_, _ = comCall(ctx, slotCtxDispatch, uintptr(groupsX), uintptr(groupsY), 1)
}

// DispatchAlphaCorrect implements fixup.Ops. arraySize selects the Tex2D vs
// Tex2DArray variant, matching internal/fixup's committed-slice bookkeeping.
func (o *opsImpl) DispatchAlphaCorrect(src, resolved fixup.Image, arraySize uint32, constants uint32, width, height uint32) {
	if arraySize > 1 {
		if err := o.ensureShader(&o.state.objects.alphaCorrectTex2DArray, o.state.bytecode.AlphaCorrectTex2DArray); err != nil {
			return
		}
		o.dispatchCompute(o.state.objects.alphaCorrectTex2DArray, toResourcePtr(src), toResourcePtr(resolved), nil, width, height)
		return
	}
	if err := o.ensureShader(&o.state.objects.alphaCorrectTex2D, o.state.bytecode.AlphaCorrectTex2D); err != nil {
		return
	}
	o.dispatchCompute(o.state.objects.alphaCorrectTex2D, toResourcePtr(src), toResourcePtr(resolved), nil, width, height)
}

// DispatchSRGBConvert implements fixup.Ops via a full-quad VS + PS draw.
func (o *opsImpl) DispatchSRGBConvert(resolved, dst fixup.Image) {
	ctx := o.state.context
	if ctx == nil {
		return
	}
	if err := o.ensureShader(&o.state.objects.vertexShader, o.state.bytecode.FullQuadVS); err != nil {
		return
	}
	if err := o.ensureShader(&o.state.objects.srgbConvertPS, o.state.bytecode.SRGBConvertPS); err != nil {
		return
	}
	_, _ = comCall(ctx, slotCtxVSSetShader, uintptr(o.state.objects.vertexShader), 0, 0)
	_, _ = comCall(ctx, slotCtxPSSetShader, uintptr(o.state.objects.srgbConvertPS), 0, 0)
	srv := toResourcePtr(resolved)
	_, _ = comCall(ctx, slotCtxCSSetShaderResources, 0, 1, uintptr(unsafe.Pointer(&srv)))
	_, _ = comCall(ctx, slotCtxDraw, 3, 0)
}

// DispatchDepthResolve implements fixup.Ops.
func (o *opsImpl) DispatchDepthResolve(src, dst fixup.Image, arraySize uint32, width, height uint32) {
	if arraySize > 1 {
		if err := o.ensureShader(&o.state.objects.depthResolveTex2DArray, o.state.bytecode.DepthResolveTex2DArray); err != nil {
			return
		}
		o.dispatchCompute(o.state.objects.depthResolveTex2DArray, toResourcePtr(src), toResourcePtr(dst), nil, width, height)
		return
	}
	if err := o.ensureShader(&o.state.objects.depthResolveTex2D, o.state.bytecode.DepthResolveTex2D); err != nil {
		return
	}
	o.dispatchCompute(o.state.objects.depthResolveTex2D, toResourcePtr(src), toResourcePtr(dst), nil, width, height)
}

// DispatchEASU implements fixup.Ops's FSR upscale pass.
func (o *opsImpl) DispatchEASU(src, dst fixup.Image, srcWidth, srcHeight, dstWidth, dstHeight uint32) {
	if err := o.ensureShader(&o.state.objects.easu, o.state.easuBytecode); err != nil {
		return
	}
	o.dispatchCompute(o.state.objects.easu, toResourcePtr(src), toResourcePtr(dst), nil, dstWidth, dstHeight)
}

// DispatchCAS implements fixup.Ops's FSR sharpen pass.
func (o *opsImpl) DispatchCAS(src, dst fixup.Image, width, height uint32) {
	if err := o.ensureShader(&o.state.objects.cas, o.state.casBytecode); err != nil {
		return
	}
	o.dispatchCompute(o.state.objects.cas, toResourcePtr(src), toResourcePtr(dst), nil, width, height)
}
