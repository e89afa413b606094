package session

import "errors"

var (
	ErrSessionNotReady    = errors.New("session: BeginSession requires state READY")
	ErrSessionNotRunning  = errors.New("session: RequestExit requires state >= SYNCHRONIZED")
	ErrSessionNotStopping = errors.New("session: EndSession requires state STOPPING")
)
