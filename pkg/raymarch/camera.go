package raymarch

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is a pinhole perspective camera in world space.
type Camera struct {
	Position r3.Vec

	// orthonormal basis; the camera looks along forward
	forward, right, up r3.Vec

	tanHalfFov float64
}

// NewLookAtCamera places a camera at position looking at target with +Y as
// the up hint. fovDeg is the vertical field of view.
func NewLookAtCamera(position, target r3.Vec, fovDeg float64) Camera {
	forward := r3.Unit(r3.Sub(target, position))
	hint := r3.Vec{Y: 1}
	if math.Abs(r3.Dot(forward, hint)) > 0.999 {
		hint = r3.Vec{Z: 1}
	}
	right := r3.Unit(r3.Cross(forward, hint))
	up := r3.Cross(right, forward)
	return Camera{
		Position:   position,
		forward:    forward,
		right:      right,
		up:         up,
		tanHalfFov: math.Tan(fovDeg * math.Pi / 360),
	}
}

// NewOrientedCamera builds a camera from an orientation quaternion. The
// unrotated camera looks down -Z with +Y up; it is placed distance units
// from target, behind the rotated view direction.
func NewOrientedCamera(q quat.Number, target r3.Vec, distance, fovDeg float64) Camera {
	rot := r3.Rotation(q)
	forward := r3.Unit(rot.Rotate(r3.Vec{Z: -1}))
	up := r3.Unit(rot.Rotate(r3.Vec{Y: 1}))
	right := r3.Unit(r3.Cross(forward, up))
	return Camera{
		Position:   r3.Sub(target, r3.Scale(distance, forward)),
		forward:    forward,
		right:      right,
		up:         up,
		tanHalfFov: math.Tan(fovDeg * math.Pi / 360),
	}
}

// Forward returns the unit viewing direction.
func (c Camera) Forward() r3.Vec {
	return c.forward
}

// Ray returns the normalized direction through the center of pixel (px, py)
// of a width x height image. Row 0 is the top of the image.
func (c Camera) Ray(px, py, width, height int) r3.Vec {
	aspect := float64(width) / float64(height)
	sx := (2*(float64(px)+0.5)/float64(width) - 1) * aspect * c.tanHalfFov
	sy := (1 - 2*(float64(py)+0.5)/float64(height)) * c.tanHalfFov
	d := r3.Add(c.forward, r3.Add(r3.Scale(sx, c.right), r3.Scale(sy, c.up)))
	return r3.Unit(d)
}
