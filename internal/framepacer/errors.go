package framepacer

import "errors"

var (
	// ErrCallOrderInvalid is returned by BeginFrame/EndFrame when called
	// out of the WaitFrame -> BeginFrame -> EndFrame order.
	ErrCallOrderInvalid = errors.New("framepacer: call made out of order")
	// ErrSessionLossPending is returned by WaitFrame once the backend
	// reports the HMD disconnected.
	ErrSessionLossPending = errors.New("framepacer: HMD disconnected, session loss pending")
)
