package spectral

import "math"

// dopplerDeadband is the half-width of the white band around zero velocity.
const dopplerDeadband = 0.05

// Shade is the color and opacity scale a voxel contributes.
type Shade struct {
	R, G, B float64

	// Opacity scales the voxel's absorption
	Opacity float64
}

// DopplerRamp maps a velocity in [-1,1] to blue, white or red. Values in
// the deadband are white; each side ramps linearly from white at the
// deadband edge to pure blue or red at ±1.
func DopplerRamp(velocity float64) (r, g, b float64) {
	v := math.Max(-1, math.Min(1, velocity))
	switch {
	case v < -dopplerDeadband:
		t := (-dopplerDeadband - v) / (1 - dopplerDeadband)
		return 1 - t, 1 - t, 1
	case v > dopplerDeadband:
		t := (v - dopplerDeadband) / (1 - dopplerDeadband)
		return 1, 1 - t, 1 - t
	}
	return 1, 1, 1
}

// Doppler blends the velocity color of a voxel with a dim grayscale base
// using the frequency weight w. s is the transfer-function brightness and
// bg the background brightness; voxels far from the channel fade to bg
// rather than vanishing.
func Doppler(w, velocity, s, bg float64) Shade {
	w = math.Max(0, math.Min(1, w))
	r, g, b := DopplerRamp(velocity)
	lit := s * 1.5
	base := s * bg
	return Shade{
		R:       mix(base, r*lit, w),
		G:       mix(base, g*lit, w),
		B:       mix(base, b*lit, w),
		Opacity: mix(bg, 1, w),
	}
}

// Plain is the shade used outside frequency mode.
func Plain(s float64) Shade {
	return Shade{R: s, G: s, B: s, Opacity: 1}
}

// DebugWeight shows the frequency weight itself as grayscale.
func DebugWeight(w, bg float64) Shade {
	return Shade{R: w, G: w, B: w, Opacity: mix(bg, 1, w)}
}

func mix(a, b, t float64) float64 {
	return a*(1-t) + b*t
}
