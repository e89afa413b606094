package layer

import (
	"errors"
	"testing"

	"github.com/vrshim/openxr-runtime/backendsdk"
	_ "github.com/vrshim/openxr-runtime/backendsdk/stub"
	"github.com/vrshim/openxr-runtime/internal/format"
	"github.com/vrshim/openxr-runtime/internal/space"
	"github.com/vrshim/openxr-runtime/internal/swapchain"
	"github.com/vrshim/openxr-runtime/internal/xrerr"
	"github.com/vrshim/openxr-runtime/xr"
)

func newTestAssembler(t *testing.T) (*Assembler, *swapchain.Registry, *space.Resolver) {
	t.Helper()
	b, ok := backendsdk.Get(backendsdk.VariantStub)
	if !ok {
		t.Fatal("stub backend not registered")
	}
	sess, err := b.Open("test")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { sess.Close() })

	swapchains := swapchain.New()
	spaces := space.New(sess)
	return New(swapchains, spaces, sess), swapchains, spaces
}

func TestAssembleRejectsNonOpaqueBlendMode(t *testing.T) {
	a, _, _ := newTestAssembler(t)
	_, err := a.Assemble(xr.FrameEndInfo{EnvironmentBlendMode: 0})
	if !errors.Is(err, xrerr.ErrEnvironmentBlendModeUnsupported) {
		t.Fatalf("Assemble() error = %v, want ErrEnvironmentBlendModeUnsupported", err)
	}
}

func TestAssembleRejectsTooManyLayers(t *testing.T) {
	a, _, _ := newTestAssembler(t)
	layers := make([]xr.CompositionLayer, 100)
	_, err := a.Assemble(xr.FrameEndInfo{EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque, Layers: layers})
	if !errors.Is(err, xrerr.ErrLayerLimitExceeded) {
		t.Fatalf("Assemble() error = %v, want ErrLayerLimitExceeded", err)
	}
}

func TestAssembleQuadLayer(t *testing.T) {
	a, swapchains, spaces := newTestAssembler(t)
	sc, _, err := swapchains.Create(swapchain.CreateInfo{FaceCount: 1, Format: format.R8G8B8A8Unorm, Width: 512, Height: 512})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	sp := spaces.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())

	info := xr.FrameEndInfo{
		EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque,
		Layers: []xr.CompositionLayer{{
			Type: xr.LayerTypeQuad,
			Quad: &xr.QuadLayer{
				Space:    sp,
				SubImage: xr.SwapchainSubImage{Swapchain: sc, ImageRect: xr.Rect2Di{Extent: xr.Extent2Di{Width: 512, Height: 512}}},
			},
		}},
	}
	out, err := a.Assemble(info)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if len(out) != 1 || out[0].Type != xr.LayerTypeQuad {
		t.Fatalf("Assemble() = %+v, want one Quad layer", out)
	}
}

func TestAssembleRejectsRectOutsideSwapchain(t *testing.T) {
	a, swapchains, spaces := newTestAssembler(t)
	sc, _, err := swapchains.Create(swapchain.CreateInfo{FaceCount: 1, Format: format.R8G8B8A8Unorm, Width: 512, Height: 512})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	sp := spaces.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())

	info := xr.FrameEndInfo{
		EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque,
		Layers: []xr.CompositionLayer{{
			Type: xr.LayerTypeQuad,
			Quad: &xr.QuadLayer{
				Space:    sp,
				SubImage: xr.SwapchainSubImage{Swapchain: sc, ImageRect: xr.Rect2Di{Extent: xr.Extent2Di{Width: 9999, Height: 9999}}},
			},
		}},
	}
	_, err = a.Assemble(info)
	if !errors.Is(err, xrerr.ErrSwapchainRectInvalid) {
		t.Fatalf("Assemble() error = %v, want ErrSwapchainRectInvalid", err)
	}
}

func TestAssembleProjectionLayerComputesDepthProjectionTerms(t *testing.T) {
	a, swapchains, spaces := newTestAssembler(t)
	sc, _, err := swapchains.Create(swapchain.CreateInfo{FaceCount: 1, Format: format.R8G8B8A8Unorm, Width: 1024, Height: 1024})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	sp := spaces.CreateReferenceSpace(xr.ReferenceSpaceView, xr.IdentityPose())

	subImage := xr.SwapchainSubImage{Swapchain: sc, ImageRect: xr.Rect2Di{Extent: xr.Extent2Di{Width: 512, Height: 1024}}}
	info := xr.FrameEndInfo{
		EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque,
		Layers: []xr.CompositionLayer{{
			Type: xr.LayerTypeProjection,
			Projection: &xr.ProjectionLayer{
				Space: sp,
				Views: [2]xr.ProjectionView{
					{SubImage: subImage, Depth: &xr.DepthInfo{NearZ: 0.1, FarZ: 100}},
					{SubImage: subImage},
				},
			},
		}},
	}
	out, err := a.Assemble(info)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if !out[0].HasDepth {
		t.Fatal("HasDepth = false, want true when a view carries DepthInfo")
	}
	if out[0].Views[0].Projection32 != -1 {
		t.Errorf("Projection32 = %v, want -1", out[0].Views[0].Projection32)
	}
}
