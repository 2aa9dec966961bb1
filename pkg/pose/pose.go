// Package pose turns observational angles into a camera orientation.
package pose

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// parallelLimit is the |cos| above which the up reference is too close to
// the view axis to build a basis from.
const parallelLimit = 0.999

var (
	primaryUp   = r3.Vec{Y: 1}
	secondaryUp = r3.Vec{Z: 1}
)

// ViewVector returns the unit vector from the target toward the observer
// for inclination inc and azimuth phi, both in degrees. The camera looks
// along its negation.
func ViewVector(inc, phi float64) r3.Vec {
	i := inc * math.Pi / 180
	p := phi * math.Pi / 180
	return r3.Vec{
		X: math.Sin(i) * math.Sin(p),
		Y: -math.Sin(i) * math.Cos(p),
		Z: math.Cos(i),
	}
}

// Basis returns the camera basis as the columns of a 3x3 matrix: right, up
// and back (the view vector). The camera looks down its local -Z.
func Basis(inc, phi float64) *mat.Dense {
	back := ViewVector(inc, phi)
	ref := primaryUp
	if math.Abs(r3.Dot(back, ref)) > parallelLimit {
		ref = secondaryUp
	}
	right := r3.Unit(r3.Cross(ref, back))
	up := r3.Cross(back, right)

	return mat.NewDense(3, 3, []float64{
		right.X, up.X, back.X,
		right.Y, up.Y, back.Y,
		right.Z, up.Z, back.Z,
	})
}

// RollAngle is the rotation about the view axis, in radians, for a
// position angle in degrees: a half turn plus the position angle,
// -(π + posang·π/180). The form -(π + posang·π)/180 is sometimes quoted
// for this roll; it divides the half turn by 180 as well, which would make
// a 90 degree position angle roll the camera by under 2 degrees.
func RollAngle(posang float64) float64 {
	return -(math.Pi + posang*math.Pi/180)
}

// FromAngles returns the camera orientation for inclination, azimuth and
// position angle, all in degrees.
func FromAngles(inc, phi, posang float64) quat.Number {
	q := fromMatrix(Basis(inc, phi))
	roll := quat.Number(r3.NewRotation(RollAngle(posang), r3.Vec{Z: 1}))
	return quat.Mul(q, roll)
}

// fromMatrix converts a rotation matrix to a unit quaternion.
func fromMatrix(m mat.Matrix) quat.Number {
	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	var q quat.Number
	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{Real: 0.25 / s, Imag: (m21 - m12) * s, Jmag: (m02 - m20) * s, Kmag: (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{Real: (m21 - m12) / s, Imag: 0.25 * s, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: 0.25 * s, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: 0.25 * s}
	}
	return quat.Scale(1/quat.Abs(q), q)
}

// ViewDirection is the unit direction the camera looks along.
func ViewDirection(inc, phi float64) r3.Vec {
	return r3.Scale(-1, ViewVector(inc, phi))
}
