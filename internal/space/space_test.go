package space

import (
	"testing"

	"github.com/vrshim/openxr-runtime/backendsdk"
	_ "github.com/vrshim/openxr-runtime/backendsdk/stub"
	"github.com/vrshim/openxr-runtime/xr"
)

func newTestResolver(t *testing.T) (*Resolver, backendsdk.Session) {
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
	return New(sess), sess
}

func TestLocateSpaceLocalToLocalIsIdentity(t *testing.T) {
	r, _ := newTestResolver(t)
	local := r.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())

	loc, err := r.LocateSpace(local, local, 0)
	if err != nil {
		t.Fatalf("LocateSpace() error = %v", err)
	}
	if loc.Pose.Position != (xr.Vector3f{}) {
		t.Errorf("LocateSpace(LOCAL, LOCAL) position = %+v, want zero", loc.Pose.Position)
	}
}

func TestLocateSpaceStageHasFloorOffset(t *testing.T) {
	r, _ := newTestResolver(t)
	local := r.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())
	stage := r.CreateReferenceSpace(xr.ReferenceSpaceStage, xr.IdentityPose())

	loc, err := r.LocateSpace(stage, local, 0)
	if err != nil {
		t.Fatalf("LocateSpace() error = %v", err)
	}
	// Stage origin is floor-level (below LOCAL's seated origin by the
	// backend-reported eye height), so stage-in-local should read a
	// negative Y offset.
	if loc.Pose.Position.Y >= 0 {
		t.Errorf("LocateSpace(STAGE, LOCAL).Position.Y = %v, want < 0", loc.Pose.Position.Y)
	}
}

func TestLocateSpaceUnknownHandleFails(t *testing.T) {
	r, _ := newTestResolver(t)
	local := r.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())
	if _, err := r.LocateSpace(xr.Space(99999), local, 0); err == nil {
		t.Error("LocateSpace() with unknown handle returned nil error")
	}
}

func TestDestroySpace(t *testing.T) {
	r, _ := newTestResolver(t)
	s := r.CreateReferenceSpace(xr.ReferenceSpaceView, xr.IdentityPose())
	if err := r.Destroy(s); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if err := r.Destroy(s); err == nil {
		t.Error("double Destroy() returned nil error, want an error for the stale handle")
	}
}

func TestVisibilityMaskReturnsFullFrameQuad(t *testing.T) {
	mask := VisibilityMask(0)
	if len(mask) != 4 {
		t.Errorf("VisibilityMask() returned %d vertices, want 4 (conservative full-frame quad)", len(mask))
	}
}

func TestResolveLocalMatchesLocateSpaceAgainstLocal(t *testing.T) {
	r, _ := newTestResolver(t)
	local := r.CreateReferenceSpace(xr.ReferenceSpaceLocal, xr.IdentityPose())

	pose, flags, err := r.Resolve(local, 0)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if flags == 0 {
		t.Error("Resolve(LOCAL) flags = 0, want full tracking flags")
	}
	if pose.Position != (xr.Vector3f{}) {
		t.Errorf("Resolve(LOCAL) position = %+v, want zero", pose.Position)
	}
}

func TestResolveUnknownHandleFails(t *testing.T) {
	r, _ := newTestResolver(t)
	if _, _, err := r.Resolve(xr.Space(99999), 0); err == nil {
		t.Error("Resolve() with unknown handle returned nil error")
	}
}
