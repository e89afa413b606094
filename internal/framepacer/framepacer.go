// Package framepacer implements the xrWaitFrame / xrBeginFrame / xrEndFrame
// triad (spec.md §4.6): a mutex plus a generation signal coordinating the
// frame-scope state every bridge and the layer assembler read. Grounded on
// internal/thread.RenderLoop's mutex/channel coordination shape, adapted
// from a UI/render-thread split into this wait/begin/end triad.
package framepacer

import (
	"sync"
	"time"

	"github.com/vrshim/openxr-runtime/backendsdk"
	"github.com/vrshim/openxr-runtime/internal/session"
	"github.com/vrshim/openxr-runtime/xr"
)

// catchUpThreshold is the Open Question #2 decision (DESIGN.md): the
// "+200ms behind" heuristic's constant, named rather than inlined; no
// backend hook overrides it.
const catchUpThreshold = 200 * time.Millisecond

// deadlockTimeout bounds the defensive waits described in spec.md §5.
const deadlockTimeout = 10 * time.Second

// FrameState is the transient per-frame bookkeeping spec.md §3.1 names,
// guarded by Pacer's mutex.
type FrameState struct {
	FrameWaited       bool
	FrameBegun        bool
	NextFrameIndex    uint64
	CurrentFrameIndex uint64
	LastFrameWaitedAt time.Time
	FenceValue        uint64

	// CanBeginFrame is the Open Question #3 decision: the first
	// xrBeginFrame must not call the backend's beginFrame, because the
	// backend's contract requires endFrame before the first beginFrame.
	CanBeginFrame bool
}

// Pacer owns the frame-scope mutex M from spec.md §5, plus the ideal frame
// duration derived from the backend's reported refresh rate. Waiters block
// on a channel that is replaced every time state changes, the standard Go
// substitute for a condition variable with a timeout.
type Pacer struct {
	mu sync.Mutex

	state            FrameState
	lastShouldRender bool
	wake             chan struct{}

	idealFrameDuration time.Duration
	backend            backendsdk.Session
	machine            *session.Machine
	nowFunc            func() time.Time
}

// New builds a Pacer bound to backend (for status polling and frame-timing
// queries) and machine (the session state machine it drives at step 2 of
// xrWaitFrame). refreshRateHz seeds the ideal frame duration.
func New(backend backendsdk.Session, machine *session.Machine, refreshRateHz float32) *Pacer {
	if refreshRateHz <= 0 {
		refreshRateHz = 90
	}
	return &Pacer{
		idealFrameDuration: time.Duration(float64(time.Second) / float64(refreshRateHz)),
		backend:            backend,
		machine:            machine,
		nowFunc:            time.Now,
		wake:               make(chan struct{}),
	}
}

// signal wakes every current waiter. Must be called with p.mu held.
func (p *Pacer) signal() {
	close(p.wake)
	p.wake = make(chan struct{})
}

// waitUntil blocks until either the next signal or deadline, releasing
// p.mu while waiting and re-acquiring it before returning. Reports whether
// it woke because of a signal (true) or the deadline (false).
func (p *Pacer) waitUntil(deadline time.Time) bool {
	ch := p.wake
	p.mu.Unlock()
	defer p.mu.Lock()

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

// WaitFrame implements spec.md §4.6's xrWaitFrame steps 1-8.
func (p *Pacer) WaitFrame() (predictedDisplayTime xr.Time, predictedDisplayPeriod xr.Duration, err error) {
	status := p.backend.PollStatus()
	now := p.nowFunc()

	if !status.Connected {
		return 0, 0, ErrSessionLossPending
	}

	p.machine.Poll(status, xr.FromNanoseconds(int64(p.backend.NowSeconds()*1e9)))
	shouldRender := p.machine.ShouldRender()

	p.mu.Lock()
	defer p.mu.Unlock()

	deadline := now.Add(deadlockTimeout)
	for p.state.FrameWaited && p.nowFunc().Before(deadline) {
		if !p.waitUntil(deadline) {
			break // defensive timeout: log-and-proceed per spec.md §5
		}
	}

	sleepUntil := p.state.LastFrameWaitedAt.Add(p.idealFrameDuration)
	if now := p.nowFunc(); sleepUntil.After(now) {
		p.waitUntil(sleepUntil)
	}

	timing, timingErr := p.backend.WaitFrameTiming(p.state.NextFrameIndex)
	if timingErr != nil {
		return 0, 0, timingErr
	}

	predictedSecs := timing.PredictedDisplayTimeSecs
	periodSecs := timing.PredictedDisplayPeriodSecs
	if periodSecs <= 0 {
		periodSecs = p.idealFrameDuration.Seconds()
	}

	nowBackendSecs := p.backend.NowSeconds()
	if nowBackendSecs-predictedSecs > catchUpThreshold.Seconds() {
		shouldRender = p.state.NextFrameIndex == 0
		predictedSecs = nowBackendSecs + p.idealFrameDuration.Seconds()
	}
	p.lastShouldRender = shouldRender

	predictedDisplayTime = xr.FromNanoseconds(int64(predictedSecs * 1e9))
	predictedDisplayPeriod = xr.Duration(int64(periodSecs * 1e9))

	p.state.FrameWaited = true
	p.state.NextFrameIndex++
	p.state.LastFrameWaitedAt = p.nowFunc()
	p.signal()

	return predictedDisplayTime, predictedDisplayPeriod, nil
}

// ShouldRender returns the shouldRender verdict computed by the most recent
// WaitFrame call.
func (p *Pacer) ShouldRender() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastShouldRender
}

// BeginFrame implements spec.md §4.6's xrBeginFrame. discarded is true when
// the previous begin was never matched by an EndFrame (XR_FRAME_DISCARDED).
func (p *Pacer) BeginFrame() (frameIndex uint64, discarded bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.FrameWaited {
		return 0, false, ErrCallOrderInvalid
	}

	discarded = p.state.FrameBegun

	p.state.CurrentFrameIndex = p.state.NextFrameIndex - 1
	if p.state.CanBeginFrame {
		if beginErr := p.backend.BeginFrame(p.state.CurrentFrameIndex); beginErr != nil {
			return 0, false, beginErr
		}
	}

	p.state.FrameWaited = false
	p.state.FrameBegun = true
	p.signal()

	return p.state.CurrentFrameIndex, discarded, nil
}

// EndFrame implements spec.md §4.6's xrEndFrame steps 1, 4-6 (layer
// assembly / bridge serialization are driven by the caller before this is
// invoked, since they need data Pacer does not own).
func (p *Pacer) EndFrame(layers any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.FrameBegun {
		return ErrCallOrderInvalid
	}

	if err := p.backend.EndFrame(p.state.CurrentFrameIndex, layers); err != nil {
		return err
	}
	p.state.CanBeginFrame = true
	p.state.FrameBegun = false
	p.signal()
	return nil
}

// FrameIndex returns the current frame index (valid between BeginFrame and
// EndFrame).
func (p *Pacer) FrameIndex() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.CurrentFrameIndex
}
