//go:build !windows

package settings

// StartWatching is a no-op off Windows: there is no registry to watch, so
// Settings stays pinned to Defaults. This runtime only ever ships for
// Windows; the stub exists so internal/settings stays importable by cross-
// platform tooling (tests, vet) run on the development machine.
func StartWatching() error { return nil }

// StopWatching is a no-op off Windows.
func StopWatching() {}
