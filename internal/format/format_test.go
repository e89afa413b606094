package format

import "testing"

func TestSubmissionFormatForDepthStencilResolve(t *testing.T) {
	sub, needResolve := SubmissionFormatFor(D32FloatS8X24UInt, false)
	if sub != D32Float {
		t.Errorf("SubmissionFormatFor(D32_FLOAT_S8X24_UINT) = %v, want D32_FLOAT", sub)
	}
	if !needResolve {
		t.Error("SubmissionFormatFor(D32_FLOAT_S8X24_UINT) needDepthResolve = false, want true")
	}
}

func TestSubmissionFormatForSRGBWithComputeFixup(t *testing.T) {
	sub, needResolve := SubmissionFormatFor(R8G8B8A8UnormSRGB, true)
	if sub != R16G16B16A16Float {
		t.Errorf("SubmissionFormatFor(sRGB, fixup) = %v, want R16G16B16A16_FLOAT", sub)
	}
	if needResolve {
		t.Error("SubmissionFormatFor(sRGB, fixup) needDepthResolve = true, want false")
	}
}

func TestSubmissionFormatForPassthrough(t *testing.T) {
	sub, needResolve := SubmissionFormatFor(R8G8B8A8Unorm, true)
	if sub != R8G8B8A8Unorm || needResolve {
		t.Errorf("SubmissionFormatFor(non-sRGB, fixup) = (%v, %v), want (R8G8B8A8_UNORM, false)", sub, needResolve)
	}
}

func TestIsDepthAndIsSRGB(t *testing.T) {
	if !D24UnormS8UInt.IsDepth() {
		t.Error("D24UnormS8UInt.IsDepth() = false, want true")
	}
	if R8G8B8A8Unorm.IsDepth() {
		t.Error("R8G8B8A8Unorm.IsDepth() = true, want false")
	}
	if !B8G8R8A8UnormSRGB.IsSRGB() {
		t.Error("B8G8R8A8UnormSRGB.IsSRGB() = false, want true")
	}
	if B8G8R8A8Unorm.IsSRGB() {
		t.Error("B8G8R8A8Unorm.IsSRGB() = true, want false")
	}
}

func TestD3DSwapchainFormatsNonEmpty(t *testing.T) {
	if len(D3DSwapchainFormats) == 0 {
		t.Error("D3DSwapchainFormats is empty")
	}
}
