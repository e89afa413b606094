package instance

import (
	"math"

	"github.com/vrshim/openxr-runtime/xr"
)

// qpcSample is one (QPC ticks, backend seconds) pair taken back-to-back.
type qpcSample struct {
	qpcTicks    int64
	backendSecs float64
}

// Calibration holds the QPC↔XrTime conversion constants computed once at
// Session init, per spec.md §3.3.
type Calibration struct {
	qpcFrequency int64
	// offsetSecs is backendTimeFromQpcOffset: min over calibrationSamples of
	// (backend_now - qpc_now/qpc_freq).
	offsetSecs float64
}

const calibrationSamples = 100

// qpcReader returns the current QPC tick count, the QPC frequency, and the
// backend's current time in fractional seconds. Swapped out in tests.
type qpcReader func() (ticks int64, freq int64, backendSecs float64)

// NewLiveQPCReader builds a qpcReader from the platform QPC source and a
// caller-supplied backend-time query (the session's bridge into the
// connected backend SDK).
func NewLiveQPCReader(backendNowSecs func() float64) qpcReader {
	return func() (int64, int64, float64) {
		ticks, freq := LiveQPCTicks()
		return ticks, freq, backendNowSecs()
	}
}

// Calibrate runs the §3.3 min-offset sampling loop and returns the
// resulting Calibration.
func Calibrate(read qpcReader) Calibration {
	var freq int64
	minOffset := math.Inf(1)

	for n := 0; n < calibrationSamples; n++ {
		ticks, f, backendSecs := read()
		freq = f
		if freq == 0 {
			continue
		}
		offset := backendSecs - float64(ticks)/float64(freq)
		if offset < minOffset {
			minOffset = offset
		}
	}

	if math.IsInf(minOffset, 1) {
		minOffset = 0
	}
	return Calibration{qpcFrequency: freq, offsetSecs: minOffset}
}

// BackendSecondsToXrTime converts a backend fractional-seconds timestamp to
// XrTime: xrTime = round(backendTime * 1e9), per spec.md §3.3.
func BackendSecondsToXrTime(backendSecs float64) xr.Time {
	return xr.Time(math.Round(backendSecs * 1e9))
}

// QPCToXrTime converts a raw QPC tick count to XrTime using the calibration
// offset: backend_equivalent = qpcTicks/freq + offsetSecs.
func (c Calibration) QPCToXrTime(qpcTicks int64) xr.Time {
	if c.qpcFrequency == 0 {
		return 0
	}
	backendSecs := float64(qpcTicks)/float64(c.qpcFrequency) + c.offsetSecs
	return BackendSecondsToXrTime(backendSecs)
}

// XrTimeToQPC inverts QPCToXrTime: qpcTicks = (xrTime/1e9 - offsetSecs) * freq.
// This is the other half of the §8 round-trip law
// (xrConvertTimeToWin32PerformanceCounterKHR ∘ xrConvertWin32PerformanceCounterToTimeKHR = identity
// within one QPC tick).
func (c Calibration) XrTimeToQPC(t xr.Time) int64 {
	if c.qpcFrequency == 0 {
		return 0
	}
	backendSecs := float64(t.Nanoseconds()) / 1e9
	qpcSecs := backendSecs - c.offsetSecs
	return int64(math.Round(qpcSecs * float64(c.qpcFrequency)))
}
