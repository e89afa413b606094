// Package session implements the 8-state session lifecycle machine
// (spec.md §4.7) and the event queue xrPollEvent drains, plus the Session
// entity's handle tables for Swapchains and Spaces (Design Notes §9).
package session

import (
	"sync"

	"github.com/vrshim/openxr-runtime/backendsdk"
	"github.com/vrshim/openxr-runtime/xr"
)

// State is one of the 8 lifecycle states from spec.md §4.7.
type State int

const (
	StateUnknown State = iota
	StateIdle
	StateReady
	StateSynchronized
	StateVisible
	StateFocused
	StateStopping
	StateLossPending
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "UNKNOWN"
	case StateIdle:
		return "IDLE"
	case StateReady:
		return "READY"
	case StateSynchronized:
		return "SYNCHRONIZED"
	case StateVisible:
		return "VISIBLE"
	case StateFocused:
		return "FOCUSED"
	case StateStopping:
		return "STOPPING"
	case StateLossPending:
		return "LOSS_PENDING"
	default:
		return "UNKNOWN"
	}
}

// StateChangedEvent mirrors XrEventDataSessionStateChanged.
type StateChangedEvent struct {
	State State
	Time  xr.Time
}

// Machine is the session-state container: current state plus the FIFO
// event queue xrPollEvent drains. Every transition is emitted as a distinct
// event per spec.md §4.7's "order discipline" — states are never collapsed.
type Machine struct {
	mu     sync.Mutex
	state  State
	events []StateChangedEvent
}

// NewMachine starts in StateUnknown; call CreateSession to enter IDLE.
func NewMachine() *Machine {
	return &Machine{state: StateUnknown}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// transition moves to next and enqueues the event, unless already there
// (no self-transition events).
func (m *Machine) transition(next State, now xr.Time) {
	if m.state == next {
		return
	}
	m.state = next
	m.events = append(m.events, StateChangedEvent{State: next, Time: now})
}

// CreateSession performs the UNKNOWN -> IDLE transition (xrCreateSession).
func (m *Machine) CreateSession(now xr.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transition(StateIdle, now)
}

// BeginSession performs READY -> SYNCHRONIZED (xrBeginSession). Returns
// ErrSessionNotReady if not currently READY.
func (m *Machine) BeginSession(now xr.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateReady {
		return ErrSessionNotReady
	}
	m.transition(StateSynchronized, now)
	return nil
}

// RequestExit performs any-state(>=SYNCHRONIZED) -> STOPPING
// (xrRequestExitSession).
func (m *Machine) RequestExit(now xr.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state < StateSynchronized || m.state == StateStopping {
		return ErrSessionNotRunning
	}
	m.transition(StateStopping, now)
	return nil
}

// EndSession performs STOPPING -> IDLE (xrEndSession). Returns
// ErrSessionNotStopping if not currently STOPPING.
func (m *Machine) EndSession(now xr.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateStopping {
		return ErrSessionNotStopping
	}
	m.transition(StateIdle, now)
	return nil
}

// Poll runs one state-machine step from a backend HMDStatus sample, per
// spec.md §4.6 step 2 / §4.7's HMD-driven edges:
//
//	IDLE -> READY                     (HMD ready)
//	SYNCHRONIZED <-> VISIBLE          (HMD un/visible)
//	VISIBLE <-> FOCUSED               (HMD un/mounted)
//	any -> LOSS_PENDING               (HMD disconnected)
//
// now is the backend-calibrated XrTime stamped on any emitted event.
func (m *Machine) Poll(status backendsdk.HMDStatus, now xr.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !status.Connected {
		m.transition(StateLossPending, now)
		return
	}

	switch m.state {
	case StateIdle:
		// "HMD ready" is modeled as Connected; a real backend may expose a
		// sharper readiness signal, but Connected is the only status bit
		// this shim's contract requires at IDLE.
		m.transition(StateReady, now)
	case StateSynchronized:
		if status.Visible {
			m.transition(StateVisible, now)
		}
	case StateVisible:
		if !status.Visible {
			m.transition(StateSynchronized, now)
		} else if status.Mounted {
			m.transition(StateFocused, now)
		}
	case StateFocused:
		if !status.Mounted {
			m.transition(StateVisible, now)
		}
	}
}

// ShouldRender reports spec.md §4.6 step 2's shouldRender predicate:
// state >= VISIBLE.
func (m *Machine) ShouldRender() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state >= StateVisible
}

// PollEvent drains the FIFO event queue, returning (event, true) or
// (zero, false) when empty (xrPollEvent returning XR_EVENT_UNAVAILABLE).
func (m *Machine) PollEvent() (StateChangedEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return StateChangedEvent{}, false
	}
	e := m.events[0]
	m.events = m.events[1:]
	return e, true
}
