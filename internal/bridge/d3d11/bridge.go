//go:build windows

package d3d11

import (
	"github.com/vrshim/openxr-runtime"
	"github.com/vrshim/openxr-runtime/xr"
)

func init() {
	openxr.RegisterGraphicsBridge(xr.GraphicsAPID3D11, New())
}
