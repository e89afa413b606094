package openxr

import "errors"

// LoaderInterfaceVersion is the XR_LOADER_INTERFACE_STRUCT_RUNTIME_REQUEST
// version this runtime implements, per the OpenXR 1.0 loader/runtime
// negotiation contract (spec.md §6).
const LoaderInterfaceVersion = 1

// CurrentAPIVersion is the OpenXR API version this runtime implements,
// encoded as major<<48 | minor<<32 | patch, matching XR_MAKE_VERSION.
const CurrentAPIVersion = uint64(1)<<48 | uint64(0)<<32 | 34

// ErrLoaderInterfaceVersionUnsupported means the loader's
// [minInterfaceVersion, maxInterfaceVersion] range does not include
// LoaderInterfaceVersion.
var ErrLoaderInterfaceVersionUnsupported = errors.New("openxr: loader interface version range does not include this runtime's version")

// ErrAPIVersionRangeUnsupported means the loader's [minApiVersion,
// maxApiVersion] range does not include CurrentAPIVersion.
var ErrAPIVersionRangeUnsupported = errors.New("openxr: loader API version range does not include this runtime's API version")

// LoaderInfo is the Go-native rendering of XrNegotiateLoaderInfo.
// cmd/runtimeshim unmarshals the real C struct into this before calling
// Negotiate.
type LoaderInfo struct {
	MinInterfaceVersion uint32
	MaxInterfaceVersion uint32
	MinAPIVersion       uint64
	MaxAPIVersion       uint64
}

// NegotiationResult is the Go-native rendering of the fields
// XrNegotiateRuntimeRequest expects back. cmd/runtimeshim copies these into
// the real C struct and fills GetInstanceProcAddr with the address of its
// own //export'd trampoline.
type NegotiationResult struct {
	RuntimeInterfaceVersion uint32
	RuntimeAPIVersion       uint64
}

// Negotiate implements xrNegotiateLoaderRuntimeInterface's pure validation
// and version-selection logic, per spec.md §6: reject a loader whose
// interface or API version range excludes this runtime, otherwise report
// back the interface version and API version it will operate at.
func Negotiate(info LoaderInfo) (NegotiationResult, error) {
	if info.MaxInterfaceVersion < LoaderInterfaceVersion || info.MinInterfaceVersion > LoaderInterfaceVersion {
		return NegotiationResult{}, ErrLoaderInterfaceVersionUnsupported
	}
	if CurrentAPIVersion < info.MinAPIVersion || CurrentAPIVersion > info.MaxAPIVersion {
		return NegotiationResult{}, ErrAPIVersionRangeUnsupported
	}
	return NegotiationResult{
		RuntimeInterfaceVersion: LoaderInterfaceVersion,
		RuntimeAPIVersion:       CurrentAPIVersion,
	}, nil
}
