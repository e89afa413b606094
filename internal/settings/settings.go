// Package settings holds the runtime's per-install configuration, read from
// the platform registry and kept current by a dedicated watcher goroutine
// (internal/thread's owned-goroutine pattern, applied to
// RegNotifyChangeKeyValue instead of GPU calls).
package settings

import "sync/atomic"

// Settings are the two registry-backed values spec.md §6 names.
type Settings struct {
	// RecenterOnStartup re-zeros the LOCAL reference space's yaw at
	// xrCreateSession time.
	RecenterOnStartup bool
	// AllowOculusRuntime permits the OVR backend variant to run alongside
	// (or instead of) the native PVR driver stack.
	AllowOculusRuntime bool
}

// Defaults match the documented defaults used when the registry key or a
// value under it is absent.
var Defaults = Settings{
	RecenterOnStartup:  true,
	AllowOculusRuntime: false,
}

var current atomic.Pointer[Settings]

func init() {
	d := Defaults
	current.Store(&d)
}

// Current returns the most recently loaded settings snapshot.
func Current() Settings {
	return *current.Load()
}

// publish republishes s as the current snapshot. Called by the platform
// loader and by the watcher goroutine on every change notification.
func publish(s Settings) {
	current.Store(&s)
}
