// SPDX-License-Identifier: MPL-2.0

// Package transform implements the spatial transform arithmetic used when
// flattening nested collections: quaternion rotation, per-axis scale and the
// composition of an enclosing transform with a local one.
//
// Quaternions use gonum's quat.Number, where Real is w and Imag/Jmag/Kmag are
// x/y/z. Use Quat and XYZW to convert from and to the xyzw order used by scene
// documents.
package transform

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is a local or composed placement: position, rotation and a
// per-axis scale.
type Transform struct {
	Position r3.Vec
	Rotation quat.Number
	Scale    r3.Vec
}

// Identity returns the transform that leaves everything in place.
func Identity() Transform {
	return Transform{
		Rotation: quat.Number{Real: 1},
		Scale:    Uniform(1),
	}
}

// Quat builds a rotation quaternion from xyzw components.
func Quat(x, y, z, w float64) quat.Number {
	return quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
}

// XYZW returns the components of q in xyzw order.
func XYZW(q quat.Number) (x, y, z, w float64) {
	return q.Imag, q.Jmag, q.Kmag, q.Real
}

// AxisAngle returns the rotation of angle radians around axis.
func AxisAngle(axis r3.Vec, angle float64) quat.Number {
	a := r3.Unit(axis)
	s := math.Sin(angle / 2)
	return Quat(a.X*s, a.Y*s, a.Z*s, math.Cos(angle/2))
}

// Uniform returns the scale vector (s, s, s).
func Uniform(s float64) r3.Vec {
	return r3.Vec{X: s, Y: s, Z: s}
}

// MulElem multiplies a and b component-wise.
func MulElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}

// Rotate rotates v by q. A zero quaternion is treated as no rotation.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	if q == (quat.Number{Real: 1}) || quat.Abs(q) == 0 {
		return v
	}
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Inv(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// Compose places inner inside outer.
//
//	rotation = outer.Rotation * inner.Rotation
//	position = outer.Position + rotate(outer.Rotation, outer.Scale ⊙ inner.Position)
//	scale    = outer.Scale ⊙ inner.Scale
//
// Scale is not carried through the rotation, so composition is not
// associative when a non-uniform scale meets a rotation that does not
// preserve axes. Callers that flatten nested levels apply Compose one level
// at a time, innermost first.
func Compose(outer, inner Transform) Transform {
	p := Rotate(outer.Rotation, MulElem(outer.Scale, inner.Position))
	return Transform{
		Position: r3.Add(outer.Position, p),
		Rotation: quat.Mul(outer.Rotation, inner.Rotation),
		Scale:    MulElem(outer.Scale, inner.Scale),
	}
}

// CollectionScale returns the scale a collection instantiation applies to the
// content it places. An explicit per-axis scale wins. A uniform scale covers
// the z axis only when the referenced collection opts in with alongZ; otherwise
// z is left at 1, as 2D content expects.
func CollectionScale(uniform float64, scale3 *r3.Vec, alongZ bool) r3.Vec {
	if scale3 != nil {
		return *scale3
	}
	if alongZ {
		return Uniform(uniform)
	}
	return r3.Vec{X: uniform, Y: uniform, Z: 1}
}

// ApproxEqual reports whether every component of a and b is within tol.
// Rotations q and -q describe the same orientation and compare equal.
func ApproxEqual(a, b Transform, tol float64) bool {
	return VecApproxEqual(a.Position, b.Position, tol) &&
		VecApproxEqual(a.Scale, b.Scale, tol) &&
		QuatApproxEqual(a.Rotation, b.Rotation, tol)
}

// VecApproxEqual reports whether a and b agree within tol on every axis.
func VecApproxEqual(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

// QuatApproxEqual reports whether a and b describe the same rotation within tol.
func QuatApproxEqual(a, b quat.Number, tol float64) bool {
	near := func(p, q quat.Number) bool {
		return math.Abs(p.Real-q.Real) <= tol &&
			math.Abs(p.Imag-q.Imag) <= tol &&
			math.Abs(p.Jmag-q.Jmag) <= tol &&
			math.Abs(p.Kmag-q.Kmag) <= tol
	}
	return near(a, b) || near(a, quat.Scale(-1, b))
}
