package raymarch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestLookAtCameraCenterRay(t *testing.T) {
	cam := NewLookAtCamera(r3.Vec{Z: 3}, r3.Vec{}, 90)
	// odd size so one pixel center is on the axis
	d := cam.Ray(2, 2, 5, 5)
	assert.InDelta(t, 0, d.X, 1e-12)
	assert.InDelta(t, 0, d.Y, 1e-12)
	assert.InDelta(t, -1, d.Z, 1e-12)
}

func TestLookAtCameraOrientation(t *testing.T) {
	cam := NewLookAtCamera(r3.Vec{Z: 3}, r3.Vec{}, 90)
	left := cam.Ray(0, 1, 3, 3)
	top := cam.Ray(1, 0, 3, 3)
	assert.Less(t, left.X, 0.0, "column 0 looks left")
	assert.Greater(t, top.Y, 0.0, "row 0 looks up")
	assert.InDelta(t, 1, r3.Norm(left), 1e-12)
}

func TestLookAtCameraStraightDown(t *testing.T) {
	cam := NewLookAtCamera(r3.Vec{Y: 5}, r3.Vec{}, 45)
	d := cam.Ray(0, 0, 4, 4)
	assert.False(t, math.IsNaN(d.X) || math.IsNaN(d.Y) || math.IsNaN(d.Z))
}

func TestOrientedCameraIdentity(t *testing.T) {
	cam := NewOrientedCamera(quat.Number{Real: 1}, r3.Vec{}, 4, 45)
	assert.InDelta(t, 4, cam.Position.Z, 1e-12)
	assert.InDelta(t, -1, cam.Forward().Z, 1e-12)
}
