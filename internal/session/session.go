// Package session additionally implements Session (spec.md §3.1, component
// C8's owning entity): the lifetime between xrCreateSession and
// xrDestroySession that exclusively owns the submission device, fence, all
// Swapchains, all Spaces, and the frame-pacing primitives, per Design
// Notes §9's ownership model.
//
// Grounded on core/device.go's "construct from validated inputs, own every
// downstream resource table" shape, generalized from a single WebGPU
// device to the full Session aggregate spec.md describes.
package session

import (
	"github.com/vrshim/openxr-runtime/backendsdk"
	"github.com/vrshim/openxr-runtime/internal/fixup"
	"github.com/vrshim/openxr-runtime/internal/framepacer"
	"github.com/vrshim/openxr-runtime/internal/layer"
	"github.com/vrshim/openxr-runtime/internal/space"
	"github.com/vrshim/openxr-runtime/internal/submission"
	"github.com/vrshim/openxr-runtime/internal/swapchain"
	"github.com/vrshim/openxr-runtime/internal/xrerr"
	"github.com/vrshim/openxr-runtime/xr"
)

// GraphicsBinding is the application's graphics-API/device pairing, taken
// from the next chain of XrSessionCreateInfo per spec.md §6.
type GraphicsBinding struct {
	API        xr.GraphicsAPI
	DeviceLUID xr.AdapterLUID
}

// Session is the full per-session aggregate: state machine, frame pacer,
// swapchain/space tables, submission device, and layer/fixup pipeline.
type Session struct {
	Machine    *Machine
	Pacer      *framepacer.Pacer
	Swapchains *swapchain.Registry
	Spaces     *space.Resolver
	Layers     *layer.Assembler
	Fixup      *fixup.Chain

	backend         backendsdk.Session
	submissionDevice *submission.Device
	graphicsBinding GraphicsBinding

	lastCommittedEye [2]uint64 // last backend swapchain handle committed per eye
}

// New constructs a Session. device must already be built (by the caller,
// from an internal/bridge package's Provider, against the HMD LUID recorded at
// xrGet*GraphicsRequirementsKHR time) and ops drives the fixup chain's
// GPU dispatches through whichever internal/bridge variant matches
// binding.API.
func New(backend backendsdk.Session, device *submission.Device, ops fixup.Ops, binding GraphicsBinding, refreshRateHz float32) *Session {
	m := NewMachine()
	swapchains := swapchain.New()
	spaces := space.New(backend)
	return &Session{
		Machine:          m,
		Pacer:            framepacer.New(backend, m, refreshRateHz),
		Swapchains:       swapchains,
		Spaces:           spaces,
		Layers:           layer.New(swapchains, spaces, backend),
		Fixup:            fixup.New(ops),
		backend:          backend,
		submissionDevice: device,
		graphicsBinding:  binding,
	}
}

// ValidateGraphicsBinding implements spec.md §4.1's adapter-selection
// check: the application's device LUID must match the one cached at
// xrGet*GraphicsRequirementsKHR time.
func ValidateGraphicsBinding(binding GraphicsBinding, requirementsCalled bool, requiredLUID xr.AdapterLUID) error {
	if !requirementsCalled {
		return xrerr.ErrGraphicsRequirementsCallMissing
	}
	if binding.DeviceLUID != requiredLUID {
		return xrerr.ErrGraphicsDeviceInvalid
	}
	return nil
}

// Begin implements xrBeginSession.
func (s *Session) Begin(now xr.Time) error { return s.Machine.BeginSession(now) }

// RequestExit implements xrRequestExitSession.
func (s *Session) RequestExit(now xr.Time) error { return s.Machine.RequestExit(now) }

// End implements xrEndSession.
func (s *Session) End(now xr.Time) error { return s.Machine.EndSession(now) }

// PollEvent drains the next queued state-change event, if any.
func (s *Session) PollEvent() (StateChangedEvent, bool) { return s.Machine.PollEvent() }

// WaitFrame implements xrWaitFrame.
func (s *Session) WaitFrame() (xr.Time, xr.Duration, error) { return s.Pacer.WaitFrame() }

// BeginFrame implements xrBeginFrame.
func (s *Session) BeginFrame() (frameIndex uint64, discarded bool, err error) {
	return s.Pacer.BeginFrame()
}

// EndFrame implements xrEndFrame: validates and flattens the layer list,
// runs the fixup chain for every referenced (swapchain, slice), then
// commits the frame through the frame pacer.
func (s *Session) EndFrame(info xr.FrameEndInfo) error {
	assembled, err := s.Layers.Assemble(info)
	if err != nil {
		return err
	}

	s.submissionDevice.BeginFrameTimer()
	defer s.submissionDevice.EndFrameTimer()

	s.Fixup.Reset()
	for _, l := range info.Layers {
		if l.Type != xr.LayerTypeProjection || l.Projection == nil {
			continue
		}
		for eye, v := range l.Projection.Views {
			lastReleased, hasReleased, err := s.Swapchains.LastReleasedIndex(v.SubImage.Swapchain)
			if err != nil || !hasReleased {
				continue
			}
			key := fixup.Key{Swapchain: uint64(v.SubImage.Swapchain), Slice: int(v.SubImage.ImageArrayIndex)}
			in := fixup.SliceInput{
				LayerIndex: 0,
				Slice:      int(v.SubImage.ImageArrayIndex),
				Flags:      layerFlagsOf(l.Projection.Flags),
				Released:   v.SubImage.Swapchain,
				Backend:    v.SubImage.Swapchain,
				Width:      uint32(v.SubImage.ImageRect.Extent.Width),
				Height:     uint32(v.SubImage.ImageRect.Extent.Height),
			}
			s.Fixup.Commit(key, in, lastReleased)
			s.lastCommittedEye[eye] = uint64(v.SubImage.Swapchain)
		}
	}

	return s.Pacer.EndFrame(assembled)
}

func layerFlagsOf(f xr.CompositionLayerFlags) fixup.LayerFlags {
	var out fixup.LayerFlags
	if f&xr.CompositionLayerBlendTextureSourceAlpha != 0 {
		out |= fixup.FlagSourceAlpha
	}
	if f&xr.CompositionLayerUnpremultipliedAlpha != 0 {
		out |= fixup.FlagUnpremultipliedAlpha
	}
	return out
}

// FrameTimings returns the last completed frame's fixup-chain GPU duration
// in microseconds, per internal/submission.Device.FrameTimings.
func (s *Session) FrameTimings() uint64 {
	return s.submissionDevice.FrameTimings()
}

// LastCommittedEye returns the last backend swapchain handle committed for
// eye (0=left, 1=right), the mirror-window hook point SPEC_FULL.md's
// supplemented-features section names.
func (s *Session) LastCommittedEye(eye int) (uint64, bool) {
	if eye < 0 || eye > 1 {
		return 0, false
	}
	h := s.lastCommittedEye[eye]
	return h, h != 0
}
