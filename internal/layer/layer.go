// Package layer implements composition-layer assembly (spec.md §4.5,
// component C6): validates an XrFrameEndInfo's layer list, resolves each
// layer's swapchain/space references, and produces the backend's layer
// array, invoking internal/fixup for the per-slice commit.
//
// Grounded on hal/command.go's command-list-walking shape, adapted: that
// file walks a recorded WebGPU command stream one opcode at a time; this
// walks a decoded XrCompositionLayerBaseHeader* list via a Go type switch
// on BaseHeader.Type instead of raw pointer casts.
package layer

import (
	"math"

	"github.com/vrshim/openxr-runtime/backendsdk"
	"github.com/vrshim/openxr-runtime/internal/space"
	"github.com/vrshim/openxr-runtime/internal/swapchain"
	"github.com/vrshim/openxr-runtime/internal/xrerr"
	"github.com/vrshim/openxr-runtime/xr"
	"github.com/vrshim/openxr-runtime/xr/xrmath"
)

// BackendLayer is the flattened, backend-ready description of one
// composition layer produced by Assemble.
type BackendLayer struct {
	Type     xr.LayerType
	Pose     xr.Posef // origin-relative, in the backend's tracking frame
	Views    [2]BackendView
	QuadSize struct{ Width, Height float32 }
	HasDepth bool
}

// BackendView is one eye's resolved view within a projection layer.
type BackendView struct {
	TanLeft, TanRight, TanUp, TanDown float32
	Viewport                          xr.Rect2Di
	DepthNear, DepthFar               float32
	Projection22, Projection23, Projection32 float32
}

// Assembler validates and flattens a frame's layer list.
type Assembler struct {
	swapchains *swapchain.Registry
	spaces     *space.Resolver
	maxLayers  int
	backend    backendsdk.Session
}

// New creates an Assembler bound to the session's swapchain/space tables.
func New(swapchains *swapchain.Registry, spaces *space.Resolver, backend backendsdk.Session) *Assembler {
	return &Assembler{swapchains: swapchains, spaces: spaces, backend: backend, maxLayers: backend.MaxLayers()}
}

// Assemble implements xrEndFrame's validation and layer-flattening pass
// (spec.md §4.5). It does not itself invoke the fixup chain; callers drive
// internal/fixup per returned BackendLayer's swapchain references.
func (a *Assembler) Assemble(info xr.FrameEndInfo) ([]BackendLayer, error) {
	if info.EnvironmentBlendMode != xr.EnvironmentBlendModeOpaque {
		return nil, xrerr.ErrEnvironmentBlendModeUnsupported
	}
	if len(info.Layers) > a.maxLayers {
		return nil, xrerr.ErrLayerLimitExceeded
	}

	out := make([]BackendLayer, 0, len(info.Layers))
	for _, l := range info.Layers {
		bl, err := a.assembleOne(l, info.DisplayTime)
		if err != nil {
			return nil, err
		}
		out = append(out, bl)
	}
	return out, nil
}

func (a *Assembler) assembleOne(l xr.CompositionLayer, displayTime xr.Time) (BackendLayer, error) {
	switch l.Type {
	case xr.LayerTypeProjection:
		return a.assembleProjection(l, displayTime)
	case xr.LayerTypeQuad:
		return a.assembleQuad(l, displayTime)
	case xr.LayerTypeCylinder, xr.LayerTypeCube:
		return a.assembleAnalogous(l, displayTime)
	default:
		return BackendLayer{}, xrerr.ErrHandleInvalid
	}
}

func (a *Assembler) assembleProjection(l xr.CompositionLayer, displayTime xr.Time) (BackendLayer, error) {
	if l.Projection == nil {
		return BackendLayer{}, xrerr.ErrValidationFailure
	}
	bl := BackendLayer{Type: xr.LayerTypeProjection}

	for i, v := range l.Projection.Views {
		if err := a.validateSubImage(v.SubImage); err != nil {
			return BackendLayer{}, err
		}
		originPose, _, err := a.spaces.Resolve(l.Projection.Space, displayTime)
		if err != nil {
			return BackendLayer{}, err
		}
		viewPose := xrmath.ComposePose(originPose, v.Pose)

		bv := BackendView{
			TanLeft:   float32(math.Tan(float64(v.Fov.AngleLeft))),
			TanRight:  float32(math.Tan(float64(v.Fov.AngleRight))),
			TanUp:     float32(math.Tan(float64(v.Fov.AngleUp))),
			TanDown:   float32(math.Tan(float64(v.Fov.AngleDown))),
			Viewport:  v.SubImage.ImageRect,
		}
		if v.Depth != nil {
			bl.HasDepth = true
			bv.DepthNear = v.Depth.NearZ
			bv.DepthFar = v.Depth.FarZ
			bv.Projection22 = v.Depth.FarZ / (v.Depth.NearZ - v.Depth.FarZ)
			bv.Projection23 = (v.Depth.FarZ * v.Depth.NearZ) / (v.Depth.NearZ - v.Depth.FarZ)
			bv.Projection32 = -1
		}
		bl.Views[i] = bv
		if i == 0 {
			bl.Pose = viewPose
		}
	}
	return bl, nil
}

func (a *Assembler) assembleQuad(l xr.CompositionLayer, displayTime xr.Time) (BackendLayer, error) {
	if l.Quad == nil {
		return BackendLayer{}, xrerr.ErrValidationFailure
	}
	if err := a.validateSubImage(l.Quad.SubImage); err != nil {
		return BackendLayer{}, err
	}
	originPose, _, err := a.spaces.Resolve(l.Quad.Space, displayTime)
	if err != nil {
		return BackendLayer{}, err
	}
	return BackendLayer{
		Type:     xr.LayerTypeQuad,
		Pose:     xrmath.ComposePose(originPose, l.Quad.Pose),
		QuadSize: l.Quad.Size,
	}, nil
}

// assembleAnalogous handles Cylinder/Cube: both reduce to a single
// swapchain + pose, analogous to Quad, per spec.md §4.5.
func (a *Assembler) assembleAnalogous(l xr.CompositionLayer, displayTime xr.Time) (BackendLayer, error) {
	switch l.Type {
	case xr.LayerTypeCylinder:
		if l.Cylinder == nil {
			return BackendLayer{}, xrerr.ErrValidationFailure
		}
		if err := a.validateSubImage(l.Cylinder.SubImage); err != nil {
			return BackendLayer{}, err
		}
		originPose, _, err := a.spaces.Resolve(l.Cylinder.Space, displayTime)
		if err != nil {
			return BackendLayer{}, err
		}
		return BackendLayer{Type: l.Type, Pose: xrmath.ComposePose(originPose, l.Cylinder.Pose)}, nil

	case xr.LayerTypeCube:
		if l.Cube == nil {
			return BackendLayer{}, xrerr.ErrValidationFailure
		}
		if _, err := a.swapchains.Describe(l.Cube.Swapchain); err != nil {
			return BackendLayer{}, xrerr.ErrHandleInvalid
		}
		originPose, _, err := a.spaces.Resolve(l.Cube.Space, displayTime)
		if err != nil {
			return BackendLayer{}, err
		}
		return BackendLayer{Type: l.Type, Pose: xrmath.ComposePose(originPose, xr.IdentityPose())}, nil

	default:
		return BackendLayer{}, xrerr.ErrHandleInvalid
	}
}

func (a *Assembler) validateSubImage(sub xr.SwapchainSubImage) error {
	desc, err := a.swapchains.Describe(sub.Swapchain)
	if err != nil {
		return xrerr.ErrHandleInvalid
	}
	r := sub.ImageRect
	if r.Offset.X < 0 || r.Offset.Y < 0 ||
		uint32(r.Offset.X+r.Extent.Width) > desc.Width ||
		uint32(r.Offset.Y+r.Extent.Height) > desc.Height {
		return xrerr.ErrSwapchainRectInvalid
	}
	return nil
}
