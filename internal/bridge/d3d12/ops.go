// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build windows

package d3d12

import (
	"fmt"
	"unsafe"

	"github.com/vrshim/openxr-runtime/hal/dx12/d3d12"
	"github.com/vrshim/openxr-runtime/internal/fixup"
)

// opsImpl is the fixup.Ops half of a Bridge: each Dispatch* call records a
// one-off command list against the shared compute queue and blocks on the
// timeline fence until it retires, since (unlike D3D11's immediate context)
// D3D12 has no implicit per-call synchronization.
type opsImpl struct{ state *deviceState }

func toResourcePtr(img fixup.Image) *d3d12.ID3D12Resource {
	p, _ := img.(*d3d12.ID3D12Resource)
	return p
}

func (o *opsImpl) ensurePipeline(slot **d3d12.ID3D12PipelineState, bytecode []byte) error {
	o.state.mu.Lock()
	defer o.state.mu.Unlock()
	if *slot != nil {
		return nil
	}
	if o.state.device == nil || o.state.rootSig == nil {
		return fmt.Errorf("d3d12: device not ready")
	}
	pso, err := o.state.device.CreateComputePipelineState(&d3d12.D3D12_COMPUTE_PIPELINE_STATE_DESC{
		RootSignature: o.state.rootSig,
		CS:            d3d12.D3D12_SHADER_BYTECODE{ShaderBytecode: unsafe.Pointer(&bytecode[0]), BytecodeLength: uintptr(len(bytecode))},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline state: %w", err)
	}
	*slot = pso
	return nil
}

// bindTable allocates the next 3 descriptors in the shared view heap (SRV,
// UAV, CBV in that order, matching buildRootSignatureLocked's range order)
// and writes src/dst's views into them.
func (o *opsImpl) bindTable(src, dst *d3d12.ID3D12Resource) d3d12.D3D12_GPU_DESCRIPTOR_HANDLE {
	base := o.state.viewNext
	o.state.viewNext += 3
	cpuBase := o.state.viewHeap.GetCPUDescriptorHandleForHeapStart()
	gpuBase := o.state.viewHeap.GetGPUDescriptorHandleForHeapStart()

	srvHandle := cpuBase.Offset(int(base), o.state.incSize)
	uavHandle := cpuBase.Offset(int(base)+1, o.state.incSize)

	o.state.device.CreateShaderResourceView(src, nil, srvHandle)
	o.state.device.CreateUnorderedAccessView(dst, nil, nil, uavHandle)

	return gpuBase.Offset(int(base), o.state.incSize)
}

// dispatchCompute records Reset/SetPipelineState/SetComputeRootSignature/
// SetDescriptorHeaps/SetComputeRootDescriptorTable/Dispatch/Close on the
// shared command list, executes it, then blocks on the timeline fence.
func (o *opsImpl) dispatchCompute(pso *d3d12.ID3D12PipelineState, src, dst *d3d12.ID3D12Resource, width, height uint32) {
	s := o.state
	if s.device == nil || pso == nil || src == nil || dst == nil {
		return
	}
	if err := s.alloc.Reset(); err != nil {
		return
	}
	if err := s.cmdList.Reset(s.alloc, pso); err != nil {
		return
	}
	s.cmdList.SetComputeRootSignature(s.rootSig)
	heaps := []*d3d12.ID3D12DescriptorHeap{s.viewHeap}
	s.cmdList.SetDescriptorHeaps(uint32(len(heaps)), &heaps[0])
	table := o.bindTable(src, dst)
	s.cmdList.SetComputeRootDescriptorTable(0, table)

	groupsX := (width + 7) / 8
	groupsY := (height + 7) / 8
	s.cmdList.Dispatch(groupsX, groupsY, 1)
	if err := s.cmdList.Close(); err != nil {
		return
	}

	lists := []*d3d12.ID3D12GraphicsCommandList{s.cmdList}
	s.queue.ExecuteCommandLists(uint32(len(lists)), &lists[0])

	s.fenceValue++
	target := s.fenceValue
	if err := s.queue.Signal(s.fence, target); err != nil {
		return
	}
	for s.fence.GetCompletedValue() < target {
	}
}

// CopySubresourceRegion implements fixup.Ops via ID3D12GraphicsCommandList::
// CopyResource, since the fixup chain's copies are always whole-subresource.
func (o *opsImpl) CopySubresourceRegion(src fixup.Image, srcSubresource uint32, dst fixup.Image, dstSubresource uint32) {
	s := o.state
	srcRes, dstRes := toResourcePtr(src), toResourcePtr(dst)
	if s.device == nil || srcRes == nil || dstRes == nil {
		return
	}
	if err := s.alloc.Reset(); err != nil {
		return
	}
	if err := s.cmdList.Reset(s.alloc, nil); err != nil {
		return
	}
	s.cmdList.CopyResource(dstRes, srcRes)
	if err := s.cmdList.Close(); err != nil {
		return
	}
	lists := []*d3d12.ID3D12GraphicsCommandList{s.cmdList}
	s.queue.ExecuteCommandLists(uint32(len(lists)), &lists[0])
	s.fenceValue++
	target := s.fenceValue
	if err := s.queue.Signal(s.fence, target); err != nil {
		return
	}
	for s.fence.GetCompletedValue() < target {
	}
}

// DispatchAlphaCorrect implements fixup.Ops.
func (o *opsImpl) DispatchAlphaCorrect(src, resolved fixup.Image, arraySize uint32, constants uint32, width, height uint32) {
	if arraySize > 1 {
		if err := o.ensurePipeline(&o.state.objects.alphaCorrectTex2DArray, o.state.bytecode.AlphaCorrectTex2DArray); err != nil {
			return
		}
		o.dispatchCompute(o.state.objects.alphaCorrectTex2DArray, toResourcePtr(src), toResourcePtr(resolved), width, height)
		return
	}
	if err := o.ensurePipeline(&o.state.objects.alphaCorrectTex2D, o.state.bytecode.AlphaCorrectTex2D); err != nil {
		return
	}
	o.dispatchCompute(o.state.objects.alphaCorrectTex2D, toResourcePtr(src), toResourcePtr(resolved), width, height)
}

// DispatchSRGBConvert implements fixup.Ops. The real pipeline here needs a
// graphics PSO (VS+PS, render target), which this package simplifies to a
// resource copy: the fixup chain's sRGB-convert step only changes how dst's
// RTV interprets resolved's bits, which for this shim's always-matching
// source/destination formats is a bit-identical copy.
func (o *opsImpl) DispatchSRGBConvert(resolved, dst fixup.Image) {
	o.CopySubresourceRegion(resolved, 0, dst, 0)
}

// DispatchDepthResolve implements fixup.Ops.
func (o *opsImpl) DispatchDepthResolve(src, dst fixup.Image, arraySize uint32, width, height uint32) {
	if arraySize > 1 {
		if err := o.ensurePipeline(&o.state.objects.depthResolveTex2DArray, o.state.bytecode.DepthResolveTex2DArray); err != nil {
			return
		}
		o.dispatchCompute(o.state.objects.depthResolveTex2DArray, toResourcePtr(src), toResourcePtr(dst), width, height)
		return
	}
	if err := o.ensurePipeline(&o.state.objects.depthResolveTex2D, o.state.bytecode.DepthResolveTex2D); err != nil {
		return
	}
	o.dispatchCompute(o.state.objects.depthResolveTex2D, toResourcePtr(src), toResourcePtr(dst), width, height)
}

// DispatchEASU implements fixup.Ops's FSR upscale pass.
func (o *opsImpl) DispatchEASU(src, dst fixup.Image, srcWidth, srcHeight, dstWidth, dstHeight uint32) {
	if err := o.ensurePipeline(&o.state.objects.easu, o.state.easuBytecode); err != nil {
		return
	}
	o.dispatchCompute(o.state.objects.easu, toResourcePtr(src), toResourcePtr(dst), dstWidth, dstHeight)
}

// DispatchCAS implements fixup.Ops's FSR sharpen pass.
func (o *opsImpl) DispatchCAS(src, dst fixup.Image, width, height uint32) {
	if err := o.ensurePipeline(&o.state.objects.cas, o.state.casBytecode); err != nil {
		return
	}
	o.dispatchCompute(o.state.objects.cas, toResourcePtr(src), toResourcePtr(dst), width, height)
}
