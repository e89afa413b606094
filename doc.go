// Package openxr implements the OpenXR 1.0 runtime entry points: instance
// and system management, session lifecycle, swapchains, reference spaces,
// and the frame loop, wired on top of internal/instance, internal/session,
// and the registered backendsdk variant.
//
// This package is not linked against application code directly. It is
// loaded by the OpenXR loader via xrNegotiateLoaderRuntimeInterface
// (implemented in cmd/runtimeshim, the cgo c-shared entry point) and
// thereafter driven exclusively through xrGetInstanceProcAddr.
//
// # Quick Start
//
// cmd/runtimeshim wires this package into a loadable runtime:
//
//	rt := openxr.NewRuntime()
//	addr, result := rt.GetInstanceProcAddr(instance, "xrCreateSession")
//
// # Backend Registration
//
// A backendsdk.Variant must be registered via a blank import before
// CreateInstance succeeds:
//
//	_ "github.com/vrshim/openxr-runtime/backendsdk/pvr"
//	_ "github.com/vrshim/openxr-runtime/backendsdk/ovr"
//
// # Graphics Bridge Registration
//
// Exactly one internal/bridge/* package must be blank-imported per
// supported graphics API so xrCreateSession can find a submission.Provider
// and fixup.Ops for the application's chosen XrGraphicsBinding*KHR:
//
//	_ "github.com/vrshim/openxr-runtime/internal/bridge/d3d11"
//
// # Thread Safety
//
// Runtime and Session are safe for concurrent use except where the OpenXR
// 1.0 specification itself forbids concurrent calls (xrEndFrame must not
// race another xrEndFrame on the same session).
package openxr
