package pose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func assertVec(t *testing.T, want, got r3.Vec, msg string) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, msg)
	assert.InDelta(t, want.Y, got.Y, 1e-9, msg)
	assert.InDelta(t, want.Z, got.Z, 1e-9, msg)
}

func TestViewVector(t *testing.T) {
	assertVec(t, r3.Vec{Z: 1}, ViewVector(0, 0), "face-on")
	assertVec(t, r3.Vec{Y: -1}, ViewVector(90, 0), "edge-on")
	assertVec(t, r3.Vec{X: 1}, ViewVector(90, 90), "edge-on rotated")
	for _, a := range [][2]float64{{30, 10}, {75, 200}, {120, -45}} {
		assert.InDelta(t, 1, r3.Norm(ViewVector(a[0], a[1])), 1e-12)
	}
}

func TestBasisOrthonormal(t *testing.T) {
	for _, a := range [][2]float64{{0, 0}, {90, 0}, {45, 30}, {180, 0}, {89.99, 180}} {
		b := Basis(a[0], a[1])
		var prod mat.Dense
		prod.Mul(b.T(), b)
		require.True(t, mat.EqualApprox(&prod, eye3(), 1e-9), "inc=%v phi=%v", a[0], a[1])
		assert.InDelta(t, 1, mat.Det(b), 1e-9, "right-handed")
	}
}

func TestBasisDegenerateFallsBack(t *testing.T) {
	// inc=90, phi=0 looks along the primary up reference
	b := Basis(90, 0)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.False(t, math.IsNaN(b.At(i, j)))
		}
	}
}

func TestFromAnglesViewDirection(t *testing.T) {
	for _, a := range [][3]float64{{0, 0, 0}, {30, 40, 10}, {90, 0, 0}, {60, 270, 135}} {
		q := FromAngles(a[0], a[1], a[2])
		assert.InDelta(t, 1, quat.Abs(q), 1e-12)

		forward := r3.Rotation(q).Rotate(r3.Vec{Z: -1})
		want := ViewDirection(a[0], a[1])
		assertVec(t, want, forward, "camera looks toward the target")
	}
}

func TestFromAnglesRoll(t *testing.T) {
	// position angle turns the up vector about the view axis
	q0 := FromAngles(30, 0, 0)
	q90 := FromAngles(30, 0, 90)
	up0 := r3.Rotation(q0).Rotate(r3.Vec{Y: 1})
	up90 := r3.Rotation(q90).Rotate(r3.Vec{Y: 1})
	assert.InDelta(t, 0, r3.Dot(up0, up90), 1e-9)
	assert.InDelta(t, math.Pi, math.Abs(RollAngle(0)), 1e-12)
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}
