package core

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	axisX   = r3.Vec{X: 1}
	axisY   = r3.Vec{Y: 1}
	axisZ   = r3.Vec{Z: 1}
	worldUp = axisY
)

// identity is the no-op rotation.
var identity = quat.Number{Real: 1}

// axisAngle returns the unit quaternion rotating by alpha radians about axis.
func axisAngle(axis r3.Vec, alpha float64) quat.Number {
	return quat.Number(r3.NewRotation(alpha, axis))
}

// rotate applies the unit quaternion q to v.
func rotate(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(q).Rotate(v)
}

// lookAt returns the orientation whose +Z axis points from eye toward target
// with +Y as close to up as possible. When the view direction is parallel to
// up the direction is nudged so a basis can still be formed.
func lookAt(eye, target, up r3.Vec) quat.Number {
	z := r3.Sub(target, eye)
	if r3.Norm2(z) == 0 {
		z = axisZ
	}
	z = r3.Unit(z)

	x := r3.Cross(up, z)
	if r3.Norm2(x) == 0 {
		if math.Abs(up.Z) == 1 {
			z.X += 0.0001
		} else {
			z.Z += 0.0001
		}
		z = r3.Unit(z)
		x = r3.Cross(up, z)
	}
	x = r3.Unit(x)
	y := r3.Cross(z, x)

	return fromBasis(x, y, z)
}

// fromBasis converts the orthonormal columns x, y, z of a rotation matrix
// into a unit quaternion.
func fromBasis(x, y, z r3.Vec) quat.Number {
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	var q quat.Number
	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{
			Real: 0.25 / s,
			Imag: (m21 - m12) * s,
			Jmag: (m02 - m20) * s,
			Kmag: (m10 - m01) * s,
		}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{
			Real: (m21 - m12) / s,
			Imag: 0.25 * s,
			Jmag: (m01 + m10) / s,
			Kmag: (m02 + m20) / s,
		}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{
			Real: (m02 - m20) / s,
			Imag: (m01 + m10) / s,
			Jmag: 0.25 * s,
			Kmag: (m12 + m21) / s,
		}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{
			Real: (m10 - m01) / s,
			Imag: (m02 + m20) / s,
			Jmag: (m12 + m21) / s,
			Kmag: 0.25 * s,
		}
	}
	return normalize(q)
}

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return identity
	}
	return quat.Scale(1/n, q)
}

// localLookAt orients a child of a group rotated by parent so that its +Z
// axis points at a world-space target. The result is in the parent frame.
func localLookAt(parent quat.Number, localPos, worldTarget r3.Vec) quat.Number {
	worldPos := rotate(parent, localPos)
	world := lookAt(worldPos, worldTarget, worldUp)
	return normalize(quat.Mul(quat.Conj(parent), world))
}
