// Package format holds the runtime's API-neutral Format enum (spec.md
// §4.1/§6, component C1), its depth/sRGB predicates, submission-format
// selection, and the D3D11/D3D12 swapchain-format enumeration list. It has
// no DXGI, Vulkan or OpenGL enum-value translation tables and no
// enumeration list for Vulkan or OpenGL sessions.
// Grounded on the switch-based enum translation style of
// hal/dx12/convert.go, hal/vulkan/convert.go, hal/gles/convert.go.
package format

// Format is the runtime's graphics-API-neutral format enum, the set this
// shim actually needs to move between DXGI, Vulkan and OpenGL (a subset of
// the full DXGI_FORMAT space).
type Format int

const (
	Unknown Format = iota
	R8G8B8A8UnormSRGB
	B8G8R8A8UnormSRGB
	R8G8B8A8Unorm
	B8G8R8A8Unorm
	B8G8R8X8UnormSRGB
	B8G8R8X8Unorm
	R16G16B16A16Float
	R11G11B10Float
	D32Float
	D32FloatS8X24UInt
	D24UnormS8UInt
	D16Unorm
)

func (f Format) String() string {
	switch f {
	case R8G8B8A8UnormSRGB:
		return "R8G8B8A8_UNORM_SRGB"
	case B8G8R8A8UnormSRGB:
		return "B8G8R8A8_UNORM_SRGB"
	case R8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	case B8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case B8G8R8X8UnormSRGB:
		return "B8G8R8X8_UNORM_SRGB"
	case B8G8R8X8Unorm:
		return "B8G8R8X8_UNORM"
	case R16G16B16A16Float:
		return "R16G16B16A16_FLOAT"
	case R11G11B10Float:
		return "R11G11B10_FLOAT"
	case D32Float:
		return "D32_FLOAT"
	case D32FloatS8X24UInt:
		return "D32_FLOAT_S8X24_UINT"
	case D24UnormS8UInt:
		return "D24_UNORM_S8_UINT"
	case D16Unorm:
		return "D16_UNORM"
	default:
		return "UNKNOWN"
	}
}

// IsDepth reports whether f is a depth/depth-stencil format.
func (f Format) IsDepth() bool {
	switch f {
	case D32Float, D32FloatS8X24UInt, D24UnormS8UInt, D16Unorm:
		return true
	default:
		return false
	}
}

// IsSRGB reports whether f is an sRGB-encoded color format.
func (f Format) IsSRGB() bool {
	switch f {
	case R8G8B8A8UnormSRGB, B8G8R8A8UnormSRGB, B8G8R8X8UnormSRGB:
		return true
	default:
		return false
	}
}

// D3DSwapchainFormats is the stable set xrEnumerateSwapchainFormats returns
// for D3D11/D3D12 sessions, sRGB and 32-bit-depth first per spec.md §6.
var D3DSwapchainFormats = []Format{
	R8G8B8A8UnormSRGB, B8G8R8A8UnormSRGB,
	R8G8B8A8Unorm, B8G8R8A8Unorm,
	B8G8R8X8UnormSRGB, B8G8R8X8Unorm,
	R16G16B16A16Float,
	D32Float, D32FloatS8X24UInt, D24UnormS8UInt, D16Unorm,
	R11G11B10Float,
}

// SubmissionFormatFor selects dxgiFormatForSubmission for an application
// format, per spec.md §4.4: depth formats needing a resolve substitute
// D32Float (dropping the stencil plane), and any format requiring a
// compute-shader fixup with an sRGB destination picks a non-sRGB 16-bit
// float intermediate instead of writing sRGB directly from a UAV (UAVs
// cannot target sRGB views).
func SubmissionFormatFor(appFormat Format, needsComputeFixup bool) (submission Format, needDepthResolve bool) {
	if appFormat == D32FloatS8X24UInt {
		return D32Float, true
	}
	if needsComputeFixup && appFormat.IsSRGB() {
		return R16G16B16A16Float, false
	}
	return appFormat, false
}
