package fixup

import "testing"

type recordingOps struct {
	calls []string
}

func (r *recordingOps) CopySubresourceRegion(src Image, srcSub uint32, dst Image, dstSub uint32) {
	r.calls = append(r.calls, "copy")
}
func (r *recordingOps) DispatchAlphaCorrect(src, resolved Image, arraySize, constants, w, h uint32) {
	r.calls = append(r.calls, "alphacorrect")
}
func (r *recordingOps) DispatchSRGBConvert(resolved, dst Image) {
	r.calls = append(r.calls, "srgbconvert")
}
func (r *recordingOps) DispatchDepthResolve(src, dst Image, arraySize, w, h uint32) {
	r.calls = append(r.calls, "depthresolve")
}
func (r *recordingOps) DispatchEASU(src, dst Image, sw, sh, dw, dh uint32) {
	r.calls = append(r.calls, "easu")
}
func (r *recordingOps) DispatchCAS(src, dst Image, w, h uint32) {
	r.calls = append(r.calls, "cas")
}

func TestCommitIsIdempotentWithinAFrame(t *testing.T) {
	ops := &recordingOps{}
	c := New(ops)
	key := Key{Swapchain: 1, Slice: 0}
	in := SliceInput{Width: 16, Height: 16}

	c.Commit(key, in, 0)
	c.Commit(key, in, 0)

	if !c.Committed(key) {
		t.Fatal("Committed() = false after Commit()")
	}
	if len(ops.calls) != 1 {
		t.Errorf("ops called %d times, want exactly 1 (second Commit must no-op)", len(ops.calls))
	}
}

func TestCommitAlphaCorrectFastPath(t *testing.T) {
	ops := &recordingOps{}
	c := New(ops)
	key := Key{Swapchain: 1, Slice: 0}
	in := SliceInput{LayerIndex: 1, Flags: FlagUnpremultipliedAlpha, Width: 16, Height: 16}

	c.Commit(key, in, 0)

	if len(ops.calls) != 2 || ops.calls[0] != "alphacorrect" || ops.calls[1] != "copy" {
		t.Errorf("ops.calls = %v, want [alphacorrect copy]", ops.calls)
	}
}

func TestCommitAlphaCorrectWithSRGBDestinationAlsoConverts(t *testing.T) {
	ops := &recordingOps{}
	c := New(ops)
	key := Key{Swapchain: 1, Slice: 0}
	in := SliceInput{LayerIndex: 1, DestSRGB: true, Width: 16, Height: 16}

	c.Commit(key, in, 0)

	want := []string{"alphacorrect", "srgbconvert"}
	if len(ops.calls) != len(want) {
		t.Fatalf("ops.calls = %v, want %v", ops.calls, want)
	}
	for i := range want {
		if ops.calls[i] != want[i] {
			t.Errorf("ops.calls[%d] = %q, want %q", i, ops.calls[i], want[i])
		}
	}
}

func TestCommitNeedCopyWhenSameIndexAlreadyProcessed(t *testing.T) {
	ops := &recordingOps{}
	c := New(ops)
	key := Key{Swapchain: 1, Slice: 0}
	in := SliceInput{LayerIndex: 0, Flags: FlagSourceAlpha, Width: 16, Height: 16}

	c.Commit(key, in, 5)
	c.Reset()
	c.Commit(key, in, 5) // same release index as before -> needCopy path

	if len(ops.calls) != 1 || ops.calls[0] != "copy" {
		t.Errorf("second-frame same-index commit = %v, want [copy]", ops.calls)
	}
}

func TestCommitDepthResolveRunsAfterColor(t *testing.T) {
	ops := &recordingOps{}
	c := New(ops)
	key := Key{Swapchain: 1, Slice: 1}
	in := SliceInput{LayerIndex: 0, Slice: 1, Flags: FlagSourceAlpha, NeedDepthResolve: true, Width: 16, Height: 16}

	c.Commit(key, in, 0)

	want := []string{"copy", "depthresolve", "copy"}
	if len(ops.calls) != len(want) {
		t.Fatalf("ops.calls = %v, want %v", ops.calls, want)
	}
}

func TestDispatchGroupsRoundsUp(t *testing.T) {
	x, y, z := DispatchGroups(17, 9)
	if x != 3 || y != 2 || z != 1 {
		t.Errorf("DispatchGroups(17,9) = (%d,%d,%d), want (3,2,1)", x, y, z)
	}
}
