package openxr

import (
	"github.com/vrshim/openxr-runtime/internal/instance"
	"github.com/vrshim/openxr-runtime/internal/session"
	"github.com/vrshim/openxr-runtime/internal/submission"
	"github.com/vrshim/openxr-runtime/internal/xrerr"
	"github.com/vrshim/openxr-runtime/xr"
)

// sessionState is everything the Runtime tracks for one live xrSession.
type sessionState struct {
	sess   *session.Session
	instSt *instanceState
}

// nowTime stamps session lifecycle events with the backend-calibrated
// current XrTime (spec.md §3.3), or zero before a backend is connected.
func (r *Runtime) nowTime(st *instanceState) xr.Time {
	if st.backend == nil {
		return 0
	}
	return instance.BackendSecondsToXrTime(st.backend.NowSeconds())
}

// CreateSession implements xrCreateSession: validates the graphics binding
// against the cached xrGet*GraphicsRequirementsKHR LUID (spec.md §4.1),
// builds the submission device through the registered GraphicsBridge for
// binding.API, and constructs the Session aggregate.
func (r *Runtime) CreateSession(h xr.Instance, binding session.GraphicsBinding) (xr.Session, xr.Result) {
	st, err := r.instanceState(h)
	if err != nil {
		return 0, toResult(err)
	}
	if st.backend == nil {
		return 0, xr.ErrorValidationFailure
	}

	st.mu.Lock()
	called := st.graphicsReqCalled[binding.API]
	required := st.requiredLUID[binding.API]
	hasActive := st.activeSession != nil
	st.mu.Unlock()

	if hasActive {
		return 0, xr.ErrorLimitReached
	}
	if err := session.ValidateGraphicsBinding(binding, called, required); err != nil {
		return 0, toResult(err)
	}

	bridge, ok := getGraphicsBridge(binding.API)
	if !ok {
		return 0, xr.ErrorFeatureUnsupported
	}

	hmd, _ := st.inst.HMD()
	device, err := submission.New(bridge.Provider(), binding.API.String(), hmd.AdapterLUID)
	if err != nil {
		return 0, toResult(err)
	}

	sess := session.New(st.backend, device, bridge.Ops(), binding, hmd.RefreshRateHz)
	sess.Machine.CreateSession(r.nowTime(st))

	ss := &sessionState{sess: sess, instSt: st}

	r.mu.Lock()
	handle := xr.Session(r.allocHandle())
	r.sessions[handle] = ss
	r.mu.Unlock()

	st.mu.Lock()
	st.activeSession = ss
	st.mu.Unlock()

	return handle, xr.Success
}

func (r *Runtime) sessionState(h xr.Session) (*sessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ss, ok := r.sessions[h]
	if !ok {
		return nil, xrerr.ErrHandleInvalid
	}
	return ss, nil
}

// DestroySession implements xrDestroySession.
func (r *Runtime) DestroySession(h xr.Session) xr.Result {
	r.mu.Lock()
	ss, ok := r.sessions[h]
	if ok {
		delete(r.sessions, h)
	}
	r.mu.Unlock()
	if !ok {
		return xr.ErrorHandleInvalid
	}

	ss.instSt.mu.Lock()
	if ss.instSt.activeSession == ss {
		ss.instSt.activeSession = nil
	}
	ss.instSt.mu.Unlock()
	return xr.Success
}

// BeginSession implements xrBeginSession.
func (r *Runtime) BeginSession(h xr.Session) xr.Result {
	ss, err := r.sessionState(h)
	if err != nil {
		return toResult(err)
	}
	return toResult(ss.sess.Begin(r.nowTime(ss.instSt)))
}

// EndSession implements xrEndSession.
func (r *Runtime) EndSession(h xr.Session) xr.Result {
	ss, err := r.sessionState(h)
	if err != nil {
		return toResult(err)
	}
	return toResult(ss.sess.End(r.nowTime(ss.instSt)))
}

// RequestExitSession implements xrRequestExitSession.
func (r *Runtime) RequestExitSession(h xr.Session) xr.Result {
	ss, err := r.sessionState(h)
	if err != nil {
		return toResult(err)
	}
	return toResult(ss.sess.RequestExit(r.nowTime(ss.instSt)))
}

// PollEvent implements xrPollEvent. ok is false when no event is queued
// (XR_EVENT_UNAVAILABLE).
func (r *Runtime) PollEvent(h xr.Session) (session.StateChangedEvent, bool, xr.Result) {
	ss, err := r.sessionState(h)
	if err != nil {
		return session.StateChangedEvent{}, false, toResult(err)
	}
	ev, ok := ss.sess.PollEvent()
	return ev, ok, xr.Success
}

// WaitFrame implements xrWaitFrame.
func (r *Runtime) WaitFrame(h xr.Session) (xr.Time, xr.Duration, xr.Result) {
	ss, err := r.sessionState(h)
	if err != nil {
		return 0, 0, toResult(err)
	}
	t, d, err := ss.sess.WaitFrame()
	return t, d, toResult(err)
}

// BeginFrame implements xrBeginFrame.
func (r *Runtime) BeginFrame(h xr.Session) xr.Result {
	ss, err := r.sessionState(h)
	if err != nil {
		return toResult(err)
	}
	_, discarded, err := ss.sess.BeginFrame()
	if err != nil {
		return toResult(err)
	}
	if discarded {
		return xr.FrameDiscarded
	}
	return xr.Success
}

// EndFrame implements xrEndFrame.
func (r *Runtime) EndFrame(h xr.Session, info xr.FrameEndInfo) xr.Result {
	ss, err := r.sessionState(h)
	if err != nil {
		return toResult(err)
	}
	return toResult(ss.sess.EndFrame(info))
}

// LastCommittedEye implements the mirror-window hook point (SPEC_FULL.md
// supplemented features): the last backend swapchain handle committed for
// eye, for an external mirror-window process to read.
func (r *Runtime) LastCommittedEye(h xr.Session, eye int) (uint64, bool, xr.Result) {
	ss, err := r.sessionState(h)
	if err != nil {
		return 0, false, toResult(err)
	}
	handle, ok := ss.sess.LastCommittedEye(eye)
	return handle, ok, xr.Success
}
