package openxr

import (
	"sync"

	"github.com/vrshim/openxr-runtime/internal/fixup"
	"github.com/vrshim/openxr-runtime/internal/submission"
	"github.com/vrshim/openxr-runtime/xr"
)

// GraphicsBridge supplies the submission.Provider and fixup.Ops pair one
// graphics API's internal/bridge/* package implements. internal/bridge/d3d11
// and friends register themselves here from an init() func, mirroring
// backendsdk.Register's registry-via-blank-import idiom (C3's grounding
// note: "exactly the PVR-vs-OVR variant duality" applies symmetrically
// here, one variant per graphics API instead of per backend SDK).
type GraphicsBridge interface {
	Provider() submission.Provider
	Ops() fixup.Ops
}

var (
	bridgesMu sync.RWMutex
	bridges   = make(map[xr.GraphicsAPI]GraphicsBridge)
)

// RegisterGraphicsBridge adds bridge to the process-wide registry for api.
func RegisterGraphicsBridge(api xr.GraphicsAPI, bridge GraphicsBridge) {
	bridgesMu.Lock()
	defer bridgesMu.Unlock()
	bridges[api] = bridge
}

// getGraphicsBridge returns the registered bridge for api.
func getGraphicsBridge(api xr.GraphicsAPI) (GraphicsBridge, bool) {
	bridgesMu.RLock()
	defer bridgesMu.RUnlock()
	b, ok := bridges[api]
	return b, ok
}
