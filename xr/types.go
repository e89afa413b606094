// Package xr is the public surface of the OpenXR runtime shim: the
// XrResult/XrTime/XrPath wire types, the opaque handle newtypes, the
// structures exchanged across the ABI boundary, and the
// xrGetInstanceProcAddr dispatch table. Internal packages (internal/instance,
// internal/session, internal/space, ...) hold all the behavior; this package
// only shapes the data and routes calls.
package xr

import "fmt"

// Time is XrTime: nanoseconds since an unspecified epoch, monotonic within
// a single Instance's lifetime.
type Time int64

// Duration is an XrDuration expressed in nanoseconds, used for
// predictedDisplayPeriod and timeouts.
type Duration int64

// Path is XrPath: an interned, opaque identifier for a string obtained via
// StringToPath. The zero value is XR_NULL_PATH.
type Path uint64

// Instance, System, Session, Space and Swapchain are the opaque handles the
// application holds. Each wraps a generational handle.Raw; the zero value is
// XR_NULL_HANDLE.
type (
	Instance  uint64
	SystemID  uint64
	Session   uint64
	Space     uint64
	Swapchain uint64
	Action    uint64
)

// IsNull reports whether h is XR_NULL_HANDLE.
func (h Instance) IsNull() bool  { return h == 0 }
func (h Session) IsNull() bool   { return h == 0 }
func (h Space) IsNull() bool     { return h == 0 }
func (h Swapchain) IsNull() bool { return h == 0 }
func (h SystemID) IsNull() bool  { return h == 0 }

// Vector3f is a 3-component vector, e.g. a translation.
type Vector3f struct{ X, Y, Z float32 }

// Quaternionf is a rotation in XYZW order.
type Quaternionf struct{ X, Y, Z, W float32 }

// IdentityQuaternion is the no-rotation quaternion.
func IdentityQuaternion() Quaternionf { return Quaternionf{0, 0, 0, 1} }

// Posef is an orientation + position, the OpenXR rigid-transform type.
type Posef struct {
	Orientation Quaternionf
	Position    Vector3f
}

// IdentityPose returns the pose at the space's own origin.
func IdentityPose() Posef { return Posef{Orientation: IdentityQuaternion()} }

// Fovf is a field-of-view expressed as four signed angles in radians.
type Fovf struct{ AngleLeft, AngleRight, AngleUp, AngleDown float32 }

// Offset2Di is an integer 2D offset, used by Rect2Di.
type Offset2Di struct{ X, Y int32 }

// Extent2Di is an integer width/height pair.
type Extent2Di struct{ Width, Height int32 }

// Rect2Di is an integer rectangle within a swapchain image.
type Rect2Di struct {
	Offset Offset2Di
	Extent Extent2Di
}

// ViewConfigurationView reports the recommended and maximum swapchain
// dimensions and sample count for one view in a view configuration.
type ViewConfigurationView struct {
	RecommendedImageRectWidth  uint32
	MaxImageRectWidth          uint32
	RecommendedImageRectHeight uint32
	MaxImageRectHeight         uint32
	RecommendedSwapchainSampleCount uint32
	MaxSwapchainSampleCount         uint32
}

// View is one eye's pose + FOV for a frame, as returned by LocateViews.
type View struct {
	Pose Posef
	Fov  Fovf
}

// EyeVisibility selects which eye(s) a quad layer is shown to.
type EyeVisibility int

const (
	EyeBoth EyeVisibility = iota
	EyeLeft
	EyeRight
)

func (e EyeVisibility) String() string {
	switch e {
	case EyeLeft:
		return "LEFT"
	case EyeRight:
		return "RIGHT"
	default:
		return "BOTH"
	}
}

// ReferenceSpaceType names one of the three reference spaces this shim
// implements.
type ReferenceSpaceType int

const (
	ReferenceSpaceView ReferenceSpaceType = iota + 1
	ReferenceSpaceLocal
	ReferenceSpaceStage
)

func (r ReferenceSpaceType) String() string {
	switch r {
	case ReferenceSpaceView:
		return "VIEW"
	case ReferenceSpaceLocal:
		return "LOCAL"
	case ReferenceSpaceStage:
		return "STAGE"
	default:
		return fmt.Sprintf("ReferenceSpaceType(%d)", int(r))
	}
}

// SpaceLocationFlags is the bitmask reported by LocateSpace.
type SpaceLocationFlags uint64

const (
	SpaceLocationOrientationValid SpaceLocationFlags = 1 << iota
	SpaceLocationPositionValid
	SpaceLocationOrientationTracked
	SpaceLocationPositionTracked
)

// SpaceLocation is the result of LocateSpace: a pose plus validity flags.
type SpaceLocation struct {
	Flags SpaceLocationFlags
	Pose  Posef
}

// EnvironmentBlendMode enumerates the supported blend modes. This shim only
// ever reports/accepts Opaque (a PC-tethered opaque HMD).
type EnvironmentBlendMode int

const EnvironmentBlendModeOpaque EnvironmentBlendMode = 1

// GraphicsAPI names which graphics binding a session was created with.
type GraphicsAPI int

const (
	GraphicsAPIUnknown GraphicsAPI = iota
	GraphicsAPID3D11
	GraphicsAPID3D12
	GraphicsAPIVulkan
	GraphicsAPIOpenGL
)

func (g GraphicsAPI) String() string {
	switch g {
	case GraphicsAPID3D11:
		return "D3D11"
	case GraphicsAPID3D12:
		return "D3D12"
	case GraphicsAPIVulkan:
		return "Vulkan"
	case GraphicsAPIOpenGL:
		return "OpenGL"
	default:
		return "Unknown"
	}
}

// AdapterLUID identifies a DXGI/Vulkan physical device, shared across all
// graphics APIs so the runtime can verify the application's device matches
// the HMD's preferred adapter.
type AdapterLUID struct{ Low uint32; High int32 }

func (l AdapterLUID) IsZero() bool { return l.Low == 0 && l.High == 0 }

func (l AdapterLUID) String() string {
	return fmt.Sprintf("LUID(%08x:%08x)", uint32(l.High), l.Low)
}
