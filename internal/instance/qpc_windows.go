//go:build windows

package instance

import "golang.org/x/sys/windows"

// LiveQPCTicks reads the current QueryPerformanceCounter tick count and the
// counter frequency, both via golang.org/x/sys/windows.
func LiveQPCTicks() (ticks int64, freq int64) {
	var t, f int64
	_ = windows.QueryPerformanceCounter(&t)
	_ = windows.QueryPerformanceFrequency(&f)
	return t, f
}
