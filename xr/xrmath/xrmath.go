// Package xrmath implements the pose/quaternion algebra internal/space
// needs to compose reference-space transforms (spec.md §4.8). Grounded on
// mrigankad-gorenderengine/math's Quaternion methods (Mul, Normalize,
// Conjugate, Inverse), rewritten over xr.Quaternionf/xr.Posef instead of a
// standalone math package's own vector types.
package xrmath

import (
	"math"

	"github.com/vrshim/openxr-runtime/xr"
)

// MulQuat composes two rotations: applying the result to a vector is
// equivalent to applying b then a.
func MulQuat(a, b xr.Quaternionf) xr.Quaternionf {
	return xr.Quaternionf{
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
	}
}

// NormalizeQuat returns q scaled to unit length, or q unchanged if
// degenerate.
func NormalizeQuat(q xr.Quaternionf) xr.Quaternionf {
	length := float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
	if length == 0 {
		return q
	}
	inv := 1 / length
	return xr.Quaternionf{X: q.X * inv, Y: q.Y * inv, Z: q.Z * inv, W: q.W * inv}
}

// ConjugateQuat returns the conjugate (= inverse, for a unit quaternion).
func ConjugateQuat(q xr.Quaternionf) xr.Quaternionf {
	return xr.Quaternionf{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// RotateVec rotates v by q.
func RotateVec(q xr.Quaternionf, v xr.Vector3f) xr.Vector3f {
	qv := xr.Quaternionf{X: v.X, Y: v.Y, Z: v.Z, W: 0}
	r := MulQuat(MulQuat(q, qv), ConjugateQuat(q))
	return xr.Vector3f{X: r.X, Y: r.Y, Z: r.Z}
}

// AddVec adds two vectors.
func AddVec(a, b xr.Vector3f) xr.Vector3f {
	return xr.Vector3f{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

// SubVec subtracts b from a.
func SubVec(a, b xr.Vector3f) xr.Vector3f {
	return xr.Vector3f{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

// ComposePose returns the pose equivalent to first applying child within
// the frame defined by parent: parent ∘ child.
func ComposePose(parent, child xr.Posef) xr.Posef {
	return xr.Posef{
		Orientation: NormalizeQuat(MulQuat(parent.Orientation, child.Orientation)),
		Position:    AddVec(parent.Position, RotateVec(parent.Orientation, child.Position)),
	}
}

// InvertPose returns the pose that undoes p: InvertPose(p) composed with p
// is the identity pose (within floating-point tolerance).
func InvertPose(p xr.Posef) xr.Posef {
	inv := ConjugateQuat(p.Orientation)
	return xr.Posef{
		Orientation: inv,
		Position:    RotateVec(inv, xr.Vector3f{X: -p.Position.X, Y: -p.Position.Y, Z: -p.Position.Z}),
	}
}

// QuaternionFromYaw builds a rotation of yaw radians about the Y axis, used
// by recenter_on_startup to re-zero LOCAL's yaw.
func QuaternionFromYaw(yaw float32) xr.Quaternionf {
	half := yaw / 2
	return xr.Quaternionf{X: 0, Y: float32(math.Sin(float64(half))), Z: 0, W: float32(math.Cos(float64(half)))}
}

// YawFromQuaternion extracts the rotation about Y, used to compute the yaw
// to cancel out at recenter time.
func YawFromQuaternion(q xr.Quaternionf) float32 {
	sinYaw := 2 * (q.W*q.Y + q.Z*q.X)
	cosYaw := 1 - 2*(q.X*q.X+q.Y*q.Y)
	return float32(math.Atan2(float64(sinYaw), float64(cosYaw)))
}
