// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package vulkan

import (
	"github.com/vrshim/openxr-runtime"
	"github.com/vrshim/openxr-runtime/xr"
)

func init() {
	openxr.RegisterGraphicsBridge(xr.GraphicsAPIVulkan, New())
}
