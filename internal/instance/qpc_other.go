//go:build !windows

package instance

import "time"

// LiveQPCTicks fakes a QPC-shaped counter off Windows using a fixed
// nanosecond frequency, so the calibration math stays exercisable by
// cross-platform tests and tooling run on the development machine.
func LiveQPCTicks() (ticks int64, freq int64) {
	return time.Now().UnixNano(), 1_000_000_000
}
