package framepacer

import (
	"errors"
	"testing"
	"time"

	"github.com/vrshim/openxr-runtime/backendsdk"
	"github.com/vrshim/openxr-runtime/internal/session"
	_ "github.com/vrshim/openxr-runtime/backendsdk/stub"
)

func newTestPacer(t *testing.T) (*Pacer, backendsdk.Session, *session.Machine) {
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

	m := session.NewMachine()
	m.CreateSession(0)
	_ = m.BeginSession(0) // READY -> SYNCHRONIZED requires READY; force via Poll below

	p := New(sess, m, 90)
	return p, sess, m
}

func TestBeginFrameBeforeWaitFrameIsCallOrderInvalid(t *testing.T) {
	p, _, _ := newTestPacer(t)
	if _, _, err := p.BeginFrame(); !errors.Is(err, ErrCallOrderInvalid) {
		t.Fatalf("BeginFrame() before WaitFrame error = %v, want ErrCallOrderInvalid", err)
	}
}

func TestEndFrameBeforeBeginFrameIsCallOrderInvalid(t *testing.T) {
	p, _, _ := newTestPacer(t)
	if err := p.EndFrame(nil); !errors.Is(err, ErrCallOrderInvalid) {
		t.Fatalf("EndFrame() before BeginFrame error = %v, want ErrCallOrderInvalid", err)
	}
}

func TestFirstBeginFrameSkipsBackendBegin(t *testing.T) {
	p, _, _ := newTestPacer(t)

	if _, _, err := p.WaitFrame(); err != nil {
		t.Fatalf("WaitFrame() error = %v", err)
	}
	idx, discarded, err := p.BeginFrame()
	if err != nil {
		t.Fatalf("BeginFrame() error = %v", err)
	}
	if discarded {
		t.Error("first BeginFrame() reported discarded = true, want false")
	}
	if idx != 0 {
		t.Errorf("first BeginFrame() frameIndex = %d, want 0", idx)
	}

	if err := p.EndFrame(nil); err != nil {
		t.Fatalf("EndFrame() error = %v", err)
	}
	if !p.state.CanBeginFrame {
		t.Error("CanBeginFrame not set true after first EndFrame")
	}
}

func TestDiscardedFrameSemantics(t *testing.T) {
	p, _, _ := newTestPacer(t)

	if _, _, err := p.WaitFrame(); err != nil {
		t.Fatalf("WaitFrame() error = %v", err)
	}
	if _, discarded, err := p.BeginFrame(); err != nil || discarded {
		t.Fatalf("first BeginFrame() = (discarded=%v, err=%v), want (false, nil)", discarded, err)
	}

	// Second BeginFrame without an intervening EndFrame: must report the
	// previous frame discarded and adopt the new frame index. Since
	// FrameWaited is now false, a fresh WaitFrame is required first in a
	// real caller; here we force FrameWaited to simulate the same
	// nextFrameIndex advancing twice before any End, matching scenario 5.
	p.mu.Lock()
	p.state.FrameWaited = true
	p.state.NextFrameIndex++
	p.mu.Unlock()

	idx2, discarded2, err := p.BeginFrame()
	if err != nil {
		t.Fatalf("second BeginFrame() error = %v", err)
	}
	if !discarded2 {
		t.Error("second BeginFrame() discarded = false, want true (no EndFrame in between)")
	}
	if idx2 != 1 {
		t.Errorf("second BeginFrame() frameIndex = %d, want 1", idx2)
	}

	if err := p.EndFrame(nil); err != nil {
		t.Fatalf("EndFrame() after discard error = %v", err)
	}
}

func TestPredictedDisplayTimeMonotonic(t *testing.T) {
	p, _, _ := newTestPacer(t)

	t1, _, err := p.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame() #1 error = %v", err)
	}
	if _, _, err := p.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame() #1 error = %v", err)
	}
	if err := p.EndFrame(nil); err != nil {
		t.Fatalf("EndFrame() #1 error = %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	t2, _, err := p.WaitFrame()
	if err != nil {
		t.Fatalf("WaitFrame() #2 error = %v", err)
	}
	if !t1.Before(t2) {
		t.Errorf("predictedDisplayTime not monotonic: t1=%v t2=%v", t1, t2)
	}
}
