//go:build windows

package d3d12

import (
	"github.com/vrshim/openxr-runtime"
	"github.com/vrshim/openxr-runtime/xr"
)

func init() {
	openxr.RegisterGraphicsBridge(xr.GraphicsAPID3D12, New())
}
