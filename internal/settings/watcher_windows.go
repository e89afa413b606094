//go:build windows

package settings

import (
	"runtime"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/vrshim/openxr-runtime/internal/runtimelog"
)

const (
	registryPath = `Software\VRShim\OpenXR`
)

// watcher owns a dedicated goroutine blocked in RegNotifyChangeKeyValue,
// the same "one goroutine owns this syscall forever" shape
// internal/thread.Thread uses for GPU calls.
type watcher struct {
	stop chan struct{}
	done chan struct{}
}

var active *watcher

// StartWatching loads the current registry values once, then spawns the
// dedicated watcher goroutine that republishes Settings on every change.
// Safe to call once per process; a second call is a no-op.
func StartWatching() error {
	if active != nil {
		return nil
	}
	if err := loadOnce(); err != nil {
		runtimelog.Logger().Warn("settings: initial registry read failed, using defaults", "error", err)
	}

	w := &watcher{stop: make(chan struct{}), done: make(chan struct{})}
	active = w
	go w.run()
	return nil
}

// StopWatching terminates the watcher goroutine, if running.
func StopWatching() {
	if active == nil {
		return
	}
	close(active.stop)
	<-active.done
	active = nil
}

func loadOnce() error {
	k, err := registry.OpenKey(registry.CURRENT_USER, registryPath, registry.QUERY_VALUE)
	if err != nil {
		publish(Defaults)
		return err
	}
	defer k.Close()

	s := Defaults
	if v, _, err := k.GetIntegerValue("recenter_on_startup"); err == nil {
		s.RecenterOnStartup = v != 0
	}
	if v, _, err := k.GetIntegerValue("allow_oculus_runtime"); err == nil {
		s.AllowOculusRuntime = v != 0
	}
	publish(s)
	return nil
}

func (w *watcher) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	k, err := registry.OpenKey(registry.CURRENT_USER, registryPath, registry.NOTIFY|registry.QUERY_VALUE)
	if err != nil {
		// Key doesn't exist yet: nothing to watch. Defaults already published
		// by loadOnce.
		close(w.done)
		return
	}
	defer k.Close()

	for {
		event, err := windows.CreateEvent(nil, 0, 0, nil)
		if err != nil {
			close(w.done)
			return
		}

		err = windows.RegNotifyChangeKeyValue(windows.Handle(k), false,
			windows.REG_NOTIFY_CHANGE_LAST_SET, event, true)
		if err != nil {
			windows.CloseHandle(event)
			close(w.done)
			return
		}

		waitResult, waitErr := windows.WaitForSingleObject(event, windows.INFINITE)
		windows.CloseHandle(event)
		if waitErr != nil || waitResult != windows.WAIT_OBJECT_0 {
			close(w.done)
			return
		}

		select {
		case <-w.stop:
			close(w.done)
			return
		default:
		}

		if err := loadOnce(); err != nil {
			runtimelog.Logger().Warn("settings: registry reload failed", "error", err)
		}
	}
}
