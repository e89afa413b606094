// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build windows

// Package opengl, ops.go: the fixup.Ops half of Bridge. Fixup passes bind
// textures as GL_COMPUTE_SHADER image-load-store units (glBindImageTexture)
// rather than SRV/UAV descriptors or a Vulkan descriptor set, the natural
// GL 4.3 analogue.
package opengl

import (
	"fmt"

	"github.com/vrshim/openxr-runtime/hal/gles/gl"
	"github.com/vrshim/openxr-runtime/internal/fixup"
)

// Image pairs the GLuint texture name internal/swapchain hands the fixup
// chain with the target (gl.TEXTURE_2D or gl.TEXTURE_2D_ARRAY) and the
// internal format glBindImageTexture needs.
type Image struct {
	Tex            uint32
	Target         uint32
	InternalFormat uint32
	Width          uint32
	Height         uint32
}

type opsImpl struct{ state *deviceState }

func toImage(img fixup.Image) *Image {
	i, _ := img.(*Image)
	return i
}

// ensureProgram lazily compiles and links the compute program for one
// fixup pass the first time it dispatches, since linking needs a live GL
// context that doesn't exist yet at CompileFixupShaders time.
func (o *opsImpl) ensureProgram(slot *uint32, glsl []byte) bool {
	s := o.state
	s.mu.Lock()
	defer s.mu.Unlock()
	if *slot != 0 {
		return true
	}
	if s.gl == nil || len(glsl) == 0 {
		return false
	}
	ctx := s.gl
	shader := ctx.CreateShader(gl.COMPUTE_SHADER)
	ctx.ShaderSource(shader, string(glsl))
	ctx.CompileShader(shader)
	var status int32
	ctx.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == 0 {
		ctx.DeleteShader(shader)
		return false
	}

	program := ctx.CreateProgram()
	ctx.AttachShader(program, shader)
	ctx.LinkProgram(program)
	ctx.DeleteShader(shader)

	var linkStatus int32
	ctx.GetProgramiv(program, gl.LINK_STATUS, &linkStatus)
	if linkStatus == 0 {
		ctx.DeleteProgram(program)
		return false
	}
	*slot = program
	return true
}

func groupCount(extent uint32) uint32 { return (extent + 7) / 8 }

// dispatchCompute binds src (unit 0, read-only) and dst (unit 1,
// write-only) as images, uploads constants as a uniform, and dispatches.
// GL's implicit command-stream ordering (unlike Vulkan/D3D12's explicit
// queue submission) means no manual fence wait is needed here beyond the
// glMemoryBarrier the next consumer of dst's image needs, which this shim
// issues right after dispatch so any subsequent GL draw/copy sees it.
func (o *opsImpl) dispatchCompute(program uint32, src, dst *Image, pushConstant uint32, groupsX, groupsY uint32) {
	s := o.state
	if s.gl == nil || program == 0 || src == nil || dst == nil {
		return
	}
	ctx := s.gl
	ctx.UseProgram(program)
	ctx.BindImageTexture(0, src.Tex, 0, false, 0, gl.READ_ONLY, src.InternalFormat)
	ctx.BindImageTexture(1, dst.Tex, 0, false, 0, gl.WRITE_ONLY, dst.InternalFormat)
	if loc := ctx.GetUniformLocation(program, "constants"); loc >= 0 {
		ctx.Uniform1i(loc, int32(pushConstant))
	}
	ctx.DispatchCompute(groupsX, groupsY, 1)
	ctx.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.ALL_BARRIER_BITS)
}

// CopySubresourceRegion implements fixup.Ops via glCopyImageSubData, which
// needs no bound framebuffer or matching pixel format to alias texel data
// between two images.
func (o *opsImpl) CopySubresourceRegion(src fixup.Image, srcSubresource uint32, dst fixup.Image, dstSubresource uint32) {
	srcImg, dstImg := toImage(src), toImage(dst)
	s := o.state
	if s.gl == nil || srcImg == nil || dstImg == nil {
		return
	}
	s.gl.CopyImageSubData(
		srcImg.Tex, srcImg.Target, 0, 0, 0, int32(srcSubresource),
		dstImg.Tex, dstImg.Target, 0, 0, 0, int32(dstSubresource),
		int32(srcImg.Width), int32(srcImg.Height), 1)
}

// DispatchAlphaCorrect implements fixup.Ops.
func (o *opsImpl) DispatchAlphaCorrect(src, resolved fixup.Image, arraySize uint32, constants uint32, width, height uint32) {
	dstImg := toImage(resolved)
	if dstImg == nil {
		return
	}
	if arraySize > 1 {
		if !o.ensureProgram(&o.state.objects.alphaCorrectTex2DArray, o.state.bytecode.AlphaCorrectTex2DArray) {
			return
		}
		o.dispatchCompute(o.state.objects.alphaCorrectTex2DArray, toImage(src), dstImg, constants, groupCount(width), groupCount(height))
		return
	}
	if !o.ensureProgram(&o.state.objects.alphaCorrectTex2D, o.state.bytecode.AlphaCorrectTex2D) {
		return
	}
	o.dispatchCompute(o.state.objects.alphaCorrectTex2D, toImage(src), dstImg, constants, groupCount(width), groupCount(height))
}

// DispatchSRGBConvert implements fixup.Ops. As in internal/bridge/d3d12
// and internal/bridge/vulkan, this bridge skips a dedicated render-pass
// pixel-shader pass: given this shim's always-matching source/destination
// formats, the "convert" step only needs to alias resolved's bits into
// dst, which glCopyImageSubData already does.
func (o *opsImpl) DispatchSRGBConvert(resolved, dst fixup.Image) {
	o.CopySubresourceRegion(resolved, 0, dst, 0)
}

// DispatchDepthResolve implements fixup.Ops.
func (o *opsImpl) DispatchDepthResolve(src, dst fixup.Image, arraySize uint32, width, height uint32) {
	dstImg := toImage(dst)
	if dstImg == nil {
		return
	}
	if arraySize > 1 {
		if !o.ensureProgram(&o.state.objects.depthResolveTex2DArray, o.state.bytecode.DepthResolveTex2DArray) {
			return
		}
		o.dispatchCompute(o.state.objects.depthResolveTex2DArray, toImage(src), dstImg, 0, groupCount(width), groupCount(height))
		return
	}
	if !o.ensureProgram(&o.state.objects.depthResolveTex2D, o.state.bytecode.DepthResolveTex2D) {
		return
	}
	o.dispatchCompute(o.state.objects.depthResolveTex2D, toImage(src), dstImg, 0, groupCount(width), groupCount(height))
}

// DispatchEASU implements fixup.Ops's FSR upscale pass.
func (o *opsImpl) DispatchEASU(src, dst fixup.Image, srcWidth, srcHeight, dstWidth, dstHeight uint32) {
	if !o.ensureProgram(&o.state.objects.easu, o.state.easuBytecode) {
		return
	}
	o.dispatchCompute(o.state.objects.easu, toImage(src), toImage(dst), 0, groupCount(dstWidth), groupCount(dstHeight))
}

// DispatchCAS implements fixup.Ops's FSR sharpen pass.
func (o *opsImpl) DispatchCAS(src, dst fixup.Image, width, height uint32) {
	if !o.ensureProgram(&o.state.objects.cas, o.state.casBytecode) {
		return
	}
	o.dispatchCompute(o.state.objects.cas, toImage(src), toImage(dst), 0, groupCount(width), groupCount(height))
}
