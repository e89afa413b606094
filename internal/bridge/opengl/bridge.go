// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build windows

package opengl

import (
	"github.com/vrshim/openxr-runtime"
	"github.com/vrshim/openxr-runtime/xr"
)

func init() {
	openxr.RegisterGraphicsBridge(xr.GraphicsAPIOpenGL, New())
}
