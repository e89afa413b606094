package openxr

import (
	"github.com/vrshim/openxr-runtime/internal/space"
	"github.com/vrshim/openxr-runtime/xr"
)

// CreateReferenceSpace implements xrCreateReferenceSpace.
func (r *Runtime) CreateReferenceSpace(h xr.Session, refType xr.ReferenceSpaceType, poseInSpace xr.Posef) (xr.Space, xr.Result) {
	ss, err := r.sessionState(h)
	if err != nil {
		return 0, toResult(err)
	}
	return ss.sess.Spaces.CreateReferenceSpace(refType, poseInSpace), xr.Success
}

// CreateActionSpace implements the action-space path of xrCreateActionSpace.
// Per SPEC_FULL.md's action system Non-goal, this always resolves to an
// identity pose with no tracking flags (internal/space.Resolver already
// encodes that for IsAction records).
func (r *Runtime) CreateActionSpace(h xr.Session, poseInAction xr.Posef) (xr.Space, xr.Result) {
	ss, err := r.sessionState(h)
	if err != nil {
		return 0, toResult(err)
	}
	return ss.sess.Spaces.CreateActionSpace(poseInAction), xr.Success
}

// DestroySpace implements xrDestroySpace.
func (r *Runtime) DestroySpace(h xr.Session, s xr.Space) xr.Result {
	ss, err := r.sessionState(h)
	if err != nil {
		return toResult(err)
	}
	return toResult(ss.sess.Spaces.Destroy(s))
}

// LocateSpace implements xrLocateSpace.
func (r *Runtime) LocateSpace(h xr.Session, s, base xr.Space, t xr.Time) (xr.SpaceLocation, xr.Result) {
	ss, err := r.sessionState(h)
	if err != nil {
		return xr.SpaceLocation{}, toResult(err)
	}
	loc, err := ss.sess.Spaces.LocateSpace(s, base, t)
	return loc, toResult(err)
}

// GetVisibilityMask implements XR_KHR_visibility_mask's
// xrGetVisibilityMaskKHR. eye is 0 (left) or 1 (right).
func (r *Runtime) GetVisibilityMask(h xr.Session, eye int) ([]xr.Vector3f, xr.Result) {
	if _, err := r.sessionState(h); err != nil {
		return nil, toResult(err)
	}
	if eye < 0 || eye > 1 {
		return nil, xr.ErrorValidationFailure
	}
	return space.VisibilityMask(eye), xr.Success
}
