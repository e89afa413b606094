// Package shaders holds the WGSL source for the fixup chain's GPU passes
// (spec.md §4.2 step 5, §4.4), authored once and cross-compiled per graphics
// API by each internal/bridge/* package through naga (hal/dx12/device.go and
// hal/gles/shader.go already drive the same WGSL->naga->target pipeline for
// the teacher's own shader authoring; this package gives the fixup chain the
// same treatment instead of writing HLSL/GLSL/SPIR-V by hand four times).
package shaders

// AlphaCorrectTex2D clears or premultiplies alpha on a single-slice source,
// writing the resolved Tex2D the sRGB-convert pass reads from. Constants.x
// carries the AlphaCorrectClear/AlphaCorrectPremultiply bits.
const AlphaCorrectTex2D = `
struct Constants {
    flags: u32,
}
@group(0) @binding(0) var src: texture_2d<f32>;
@group(0) @binding(1) var dst: texture_storage_2d<rgba16float, write>;
@group(0) @binding(2) var<uniform> constants: Constants;

const FLAG_CLEAR: u32 = 1u;
const FLAG_PREMULTIPLY: u32 = 2u;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let size = textureDimensions(dst);
    if (gid.x >= size.x || gid.y >= size.y) {
        return;
    }
    var texel = textureLoad(src, vec2<i32>(gid.xy), 0);
    if ((constants.flags & FLAG_CLEAR) != 0u) {
        texel.a = 1.0;
    } else if ((constants.flags & FLAG_PREMULTIPLY) != 0u) {
        texel = vec4<f32>(texel.rgb * texel.a, texel.a);
    }
    textureStore(dst, vec2<i32>(gid.xy), texel);
}
`

// AlphaCorrectTex2DArray is AlphaCorrectTex2D's array-texture variant,
// selected when a layer's ArraySize is 2 (stereo array swapchains).
const AlphaCorrectTex2DArray = `
struct Constants {
    flags: u32,
}
@group(0) @binding(0) var src: texture_2d_array<f32>;
@group(0) @binding(1) var dst: texture_storage_2d_array<rgba16float, write>;
@group(0) @binding(2) var<uniform> constants: Constants;

const FLAG_CLEAR: u32 = 1u;
const FLAG_PREMULTIPLY: u32 = 2u;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let size = textureDimensions(dst);
    if (gid.x >= size.x || gid.y >= size.y) {
        return;
    }
    var texel = textureLoad(src, vec2<i32>(gid.xy), i32(gid.z), 0);
    if ((constants.flags & FLAG_CLEAR) != 0u) {
        texel.a = 1.0;
    } else if ((constants.flags & FLAG_PREMULTIPLY) != 0u) {
        texel = vec4<f32>(texel.rgb * texel.a, texel.a);
    }
    textureStore(dst, vec2<i32>(gid.xy), i32(gid.z), texel);
}
`

// FullQuadVS is the full-screen triangle vertex shader shared by the
// sRGB-convert pass.
const FullQuadVS = `
struct VSOut {
    @builtin(position) pos: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn main(@builtin(vertex_index) idx: u32) -> VSOut {
    var out: VSOut;
    let uv = vec2<f32>(f32((idx << 1u) & 2u), f32(idx & 2u));
    out.uv = uv;
    out.pos = vec4<f32>(uv * 2.0 - 1.0, 0.0, 1.0);
    return out;
}
`

// SRGBConvertPS writes resolved's linear color into dst's sRGB-encoded RTV,
// the last step before a slice is considered backend-committed.
const SRGBConvertPS = `
@group(0) @binding(0) var resolved: texture_2d<f32>;
@group(0) @binding(1) var samp: sampler;

@fragment
fn main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(resolved, samp, uv);
}
`

// DepthResolveTex2D drops the stencil plane of a D32_FLOAT_S8X24 depth
// swapchain into a plain R32_FLOAT the backend SDK's depth path accepts.
const DepthResolveTex2D = `
@group(0) @binding(0) var src: texture_2d<f32>;
@group(0) @binding(1) var dst: texture_storage_2d<r32float, write>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let size = textureDimensions(dst);
    if (gid.x >= size.x || gid.y >= size.y) {
        return;
    }
    let depth = textureLoad(src, vec2<i32>(gid.xy), 0).r;
    textureStore(dst, vec2<i32>(gid.xy), vec4<f32>(depth, 0.0, 0.0, 0.0));
}
`

// DepthResolveTex2DArray is DepthResolveTex2D's stereo-array variant.
const DepthResolveTex2DArray = `
@group(0) @binding(0) var src: texture_2d_array<f32>;
@group(0) @binding(1) var dst: texture_storage_2d_array<r32float, write>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let size = textureDimensions(dst);
    if (gid.x >= size.x || gid.y >= size.y) {
        return;
    }
    let depth = textureLoad(src, vec2<i32>(gid.xy), i32(gid.z), 0).r;
    textureStore(dst, vec2<i32>(gid.xy), i32(gid.z), vec4<f32>(depth, 0.0, 0.0, 0.0));
}
`

// EASU stands in for FSR 1.0's edge-adaptive spatial upsample, simplified to
// one bilinear sample per destination texel rather than the full reference
// 13-tap kernel;
// good enough for the compositor's own mirror output, which is what
// upscale/sharpen exists for per spec.md §9.
const EASU = `
@group(0) @binding(0) var src: texture_2d<f32>;
@group(0) @binding(1) var dst: texture_storage_2d<rgba16float, write>;
@group(0) @binding(2) var samp: sampler;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let dstSize = textureDimensions(dst);
    if (gid.x >= dstSize.x || gid.y >= dstSize.y) {
        return;
    }
    let srcSize = textureDimensions(src);
    let uv = (vec2<f32>(gid.xy) + 0.5) / vec2<f32>(dstSize);
    let texel = textureSampleLevel(src, samp, uv, 0.0);
    textureStore(dst, vec2<i32>(gid.xy), texel);
}
`

// CAS stands in for FSR 1.0's contrast-adaptive sharpen pass, applied after
// EASU: a fixed 4-neighbour sharpen kernel clamped to [0,1], with no
// per-pixel contrast adaptation.
const CAS = `
@group(0) @binding(0) var src: texture_2d<f32>;
@group(0) @binding(1) var dst: texture_storage_2d<rgba16float, write>;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let size = textureDimensions(dst);
    if (gid.x >= size.x || gid.y >= size.y) {
        return;
    }
    let p = vec2<i32>(gid.xy);
    let center = textureLoad(src, p, 0);
    let n = textureLoad(src, p + vec2<i32>(0, -1), 0);
    let s = textureLoad(src, p + vec2<i32>(0, 1), 0);
    let e = textureLoad(src, p + vec2<i32>(1, 0), 0);
    let w = textureLoad(src, p + vec2<i32>(-1, 0), 0);
    let sharpen = center * 5.0 - (n + s + e + w);
    textureStore(dst, p, clamp(sharpen, vec4<f32>(0.0), vec4<f32>(1.0)));
}
`
