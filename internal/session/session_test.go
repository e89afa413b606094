package session

import (
	"errors"
	"testing"

	"github.com/vrshim/openxr-runtime/backendsdk"
	_ "github.com/vrshim/openxr-runtime/backendsdk/stub"
	"github.com/vrshim/openxr-runtime/internal/format"
	"github.com/vrshim/openxr-runtime/internal/fixup"
	"github.com/vrshim/openxr-runtime/internal/swapchain"
	"github.com/vrshim/openxr-runtime/internal/xrerr"
	"github.com/vrshim/openxr-runtime/xr"
)

type noopOps struct{}

func (noopOps) CopySubresourceRegion(src fixup.Image, srcSub uint32, dst fixup.Image, dstSub uint32) {
}
func (noopOps) DispatchAlphaCorrect(src, resolved fixup.Image, arraySize, constants, w, h uint32) {}
func (noopOps) DispatchSRGBConvert(resolved, dst fixup.Image)                                     {}
func (noopOps) DispatchDepthResolve(src, dst fixup.Image, arraySize, w, h uint32)                  {}
func (noopOps) DispatchEASU(src, dst fixup.Image, sw, sh, dw, dh uint32)                           {}
func (noopOps) DispatchCAS(src, dst fixup.Image, w, h uint32)                                      {}

func newTestSession(t *testing.T) *Session {
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

	return New(sess, nil, noopOps{}, GraphicsBinding{API: xr.GraphicsAPID3D11}, 90)
}

func TestValidateGraphicsBindingRequiresPriorRequirementsCall(t *testing.T) {
	err := ValidateGraphicsBinding(GraphicsBinding{}, false, xr.AdapterLUID{})
	if !errors.Is(err, xrerr.ErrGraphicsRequirementsCallMissing) {
		t.Fatalf("ValidateGraphicsBinding() error = %v, want ErrGraphicsRequirementsCallMissing", err)
	}
}

func TestValidateGraphicsBindingRejectsLUIDMismatch(t *testing.T) {
	binding := GraphicsBinding{DeviceLUID: xr.AdapterLUID{Low: 1}}
	err := ValidateGraphicsBinding(binding, true, xr.AdapterLUID{Low: 2})
	if !errors.Is(err, xrerr.ErrGraphicsDeviceInvalid) {
		t.Fatalf("ValidateGraphicsBinding() error = %v, want ErrGraphicsDeviceInvalid", err)
	}
}

func TestValidateGraphicsBindingAcceptsMatch(t *testing.T) {
	luid := xr.AdapterLUID{Low: 7, High: 3}
	binding := GraphicsBinding{DeviceLUID: luid}
	if err := ValidateGraphicsBinding(binding, true, luid); err != nil {
		t.Fatalf("ValidateGraphicsBinding() error = %v, want nil", err)
	}
}

func TestSessionBeginWaitBeginEndFrameLifecycle(t *testing.T) {
	s := newTestSession(t)
	s.Machine.CreateSession(0)

	if _, _, err := s.WaitFrame(); err != nil {
		t.Fatalf("WaitFrame() error = %v", err)
	}
	if _, _, err := s.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame() error = %v", err)
	}

	info := xr.FrameEndInfo{EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque}
	if err := s.EndFrame(info); err != nil {
		t.Fatalf("EndFrame() error = %v", err)
	}
}

func TestSessionEndFrameRunsFixupForReleasedProjectionViews(t *testing.T) {
	s := newTestSession(t)
	s.Machine.CreateSession(0)

	sc, _, err := s.Swapchains.Create(swapchain.CreateInfo{FaceCount: 1, Format: format.R8G8B8A8Unorm, Width: 512, Height: 1024})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := s.Swapchains.AcquireImage(sc); err != nil {
		t.Fatalf("AcquireImage() error = %v", err)
	}
	if err := s.Swapchains.WaitImage(sc); err != nil {
		t.Fatalf("WaitImage() error = %v", err)
	}
	if err := s.Swapchains.ReleaseImage(sc); err != nil {
		t.Fatalf("ReleaseImage() error = %v", err)
	}

	sp := s.Spaces.CreateReferenceSpace(xr.ReferenceSpaceView, xr.IdentityPose())
	subImage := xr.SwapchainSubImage{Swapchain: sc, ImageRect: xr.Rect2Di{Extent: xr.Extent2Di{Width: 512, Height: 1024}}}

	if _, _, err := s.WaitFrame(); err != nil {
		t.Fatalf("WaitFrame() error = %v", err)
	}
	if _, _, err := s.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame() error = %v", err)
	}

	info := xr.FrameEndInfo{
		EnvironmentBlendMode: xr.EnvironmentBlendModeOpaque,
		Layers: []xr.CompositionLayer{{
			Type: xr.LayerTypeProjection,
			Projection: &xr.ProjectionLayer{
				Space: sp,
				Views: [2]xr.ProjectionView{{SubImage: subImage}, {SubImage: subImage}},
			},
		}},
	}
	if err := s.EndFrame(info); err != nil {
		t.Fatalf("EndFrame() error = %v", err)
	}

	if _, ok := s.LastCommittedEye(0); !ok {
		t.Error("LastCommittedEye(0) ok = false, want true after a projection-layer EndFrame")
	}
}
