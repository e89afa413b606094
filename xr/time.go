package xr

import "time"

// FromNanoseconds builds a Time from a raw nanosecond count.
func FromNanoseconds(ns int64) Time { return Time(ns) }

// Nanoseconds returns the raw nanosecond count.
func (t Time) Nanoseconds() int64 { return int64(t) }

// Add returns t advanced by d.
func (t Time) Add(d Duration) Time { return t + Time(d) }

// Sub returns the signed difference t - u as a Duration.
func (t Time) Sub(u Time) Duration { return Duration(t - u) }

// Before reports whether t is strictly earlier than u.
func (t Time) Before(u Time) bool { return t < u }

// DurationFromStd converts a standard library time.Duration to Duration.
func DurationFromStd(d time.Duration) Duration { return Duration(d.Nanoseconds()) }

// Std converts a Duration back to a standard library time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
