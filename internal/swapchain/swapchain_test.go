package swapchain

import (
	"errors"
	"testing"

	"github.com/vrshim/openxr-runtime/internal/format"
	"github.com/vrshim/openxr-runtime/internal/xrerr"
)

func TestCreateRejectsMultiFace(t *testing.T) {
	r := New()
	_, _, err := r.Create(CreateInfo{FaceCount: 2, Format: format.R8G8B8A8Unorm})
	if !errors.Is(err, xrerr.ErrSwapchainFormatUnsupported) {
		t.Fatalf("Create(faceCount=2) error = %v, want ErrSwapchainFormatUnsupported", err)
	}
}

func TestCreateRejectsUnknownFormat(t *testing.T) {
	r := New()
	_, _, err := r.Create(CreateInfo{FaceCount: 1, Format: format.Unknown})
	if !errors.Is(err, xrerr.ErrSwapchainFormatUnsupported) {
		t.Fatalf("Create(format=Unknown) error = %v, want ErrSwapchainFormatUnsupported", err)
	}
}

func TestCreateSubstitutesDepthStencilFormat(t *testing.T) {
	r := New()
	_, rec, err := r.Create(CreateInfo{FaceCount: 1, Format: format.D32FloatS8X24UInt})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.SubmissionFormat != format.D32Float || !rec.NeedDepthResolve {
		t.Errorf("Create(D32_FLOAT_S8X24_UINT) = (%v, %v), want (D32_FLOAT, true)", rec.SubmissionFormat, rec.NeedDepthResolve)
	}
}

func TestAcquireWaitReleaseSequence(t *testing.T) {
	r := New()
	h, _, err := r.Create(CreateInfo{FaceCount: 1, Format: format.R8G8B8A8Unorm})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := r.WaitImage(h); !errors.Is(err, xrerr.ErrCallOrderInvalid) {
		t.Fatalf("WaitImage() before Acquire error = %v, want ErrCallOrderInvalid", err)
	}

	idx, err := r.AcquireImage(h)
	if err != nil {
		t.Fatalf("AcquireImage() error = %v", err)
	}
	if idx != 0 {
		t.Errorf("first AcquireImage() = %d, want 0", idx)
	}

	if err := r.ReleaseImage(h); !errors.Is(err, xrerr.ErrCallOrderInvalid) {
		t.Fatalf("ReleaseImage() before Wait error = %v, want ErrCallOrderInvalid", err)
	}

	if err := r.WaitImage(h); err != nil {
		t.Fatalf("WaitImage() error = %v", err)
	}
	if err := r.ReleaseImage(h); err != nil {
		t.Fatalf("ReleaseImage() error = %v", err)
	}

	last, ok, err := r.LastReleasedIndex(h)
	if err != nil || !ok || last != 0 {
		t.Errorf("LastReleasedIndex() = (%d, %v, %v), want (0, true, nil)", last, ok, err)
	}
}

func TestStaticImageSwapchainOnlyAcquiresOnce(t *testing.T) {
	r := New()
	h, _, err := r.Create(CreateInfo{FaceCount: 1, Format: format.R8G8B8A8Unorm, Usage: UsageStaticImage})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := r.AcquireImage(h); err != nil {
		t.Fatalf("first AcquireImage() error = %v", err)
	}
	if err := r.WaitImage(h); err != nil {
		t.Fatalf("WaitImage() error = %v", err)
	}
	if err := r.ReleaseImage(h); err != nil {
		t.Fatalf("ReleaseImage() error = %v", err)
	}
	if _, err := r.AcquireImage(h); !errors.Is(err, xrerr.ErrCallOrderInvalid) {
		t.Fatalf("second AcquireImage() on static-image swapchain error = %v, want ErrCallOrderInvalid", err)
	}
}

func TestDestroyThenOperationsFail(t *testing.T) {
	r := New()
	h, _, _ := r.Create(CreateInfo{FaceCount: 1, Format: format.R8G8B8A8Unorm})
	if err := r.Destroy(h); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if _, err := r.AcquireImage(h); !errors.Is(err, xrerr.ErrHandleInvalid) {
		t.Errorf("AcquireImage() after Destroy error = %v, want ErrHandleInvalid", err)
	}
}

func TestImageCountReportsDefaultRingSize(t *testing.T) {
	r := New()
	h, _, _ := r.Create(CreateInfo{FaceCount: 1, Format: format.R8G8B8A8Unorm})
	n, err := r.ImageCount(h)
	if err != nil {
		t.Fatalf("ImageCount() error = %v", err)
	}
	if n != defaultImageCount {
		t.Errorf("ImageCount() = %d, want %d", n, defaultImageCount)
	}
}

func TestEnsureSliceLazilyCreatesAdditionalSlices(t *testing.T) {
	r := New()
	h, _, _ := r.Create(CreateInfo{FaceCount: 1, Format: format.R8G8B8A8Unorm, ArraySize: 2})
	st, err := r.EnsureSlice(h, 1)
	if err != nil {
		t.Fatalf("EnsureSlice() error = %v", err)
	}
	if st.BackendCreated {
		t.Error("EnsureSlice(1) BackendCreated = true on first reference, want false until bridge realizes it")
	}
}
