// Package spectral maps per-voxel line statistics onto a visibility weight
// for the selected frequency channel and colors voxels by Doppler velocity.
package spectral

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects the frequency weighting variant.
type Mode int

const (
	// Gaussian point-samples the line profile at the channel center.
	Gaussian Mode = iota

	// BandIntegrated integrates the profile over the channel's ±0.5 band.
	BandIntegrated
)

func (m Mode) String() string {
	switch m {
	case Gaussian:
		return "gaussian"
	case BandIntegrated:
		return "band"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "gaussian" or "band" (also "erf", "integrated").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gaussian", "gauss", "":
		return Gaussian, nil
	case "band", "erf", "integrated", "bandintegrated":
		return BandIntegrated, nil
	}
	return Gaussian, fmt.Errorf("unknown weighting mode %q", s)
}

// minSigma is the hard floor under any configured line-width floor.
const minSigma = 1e-3

// WeightParams configures the weighting model for one frame.
type WeightParams struct {
	Mode Mode

	// Channel is the selected channel index
	Channel int

	// Broadening multiplies every voxel's line width
	Broadening float64

	// MinWidth is the line-width floor in channel units
	MinWidth float64

	// Gamma shapes the final weight; 1 is a pass-through
	Gamma float64
}

// Sigma returns the broadened, floored line width used for a voxel.
func (p WeightParams) Sigma(width float64) float64 {
	b := p.Broadening
	if b <= 0 {
		b = 1
	}
	sigma := width * b
	floor := math.Max(p.MinWidth, minSigma)
	if !(sigma >= floor) {
		sigma = floor
	}
	return sigma
}

// Weight computes how visible a voxel is in the selected channel. The
// voxel's line is modeled with the profile chosen by p.Mode and broadened
// by p.Broadening, with the width floored at p.MinWidth.
//
// Parameters:
//   - center: Fractional channel index where the voxel's line peaks
//   - width: Line width in channels
//   - p: Selected channel, profile and shaping parameters
//
// Returns:
//   - The visibility in [0,1] after the p.Gamma exponent
func Weight(center, width float64, p WeightParams) float64 {
	sigma := p.Sigma(width)
	dch := float64(p.Channel) - center

	var w float64
	switch p.Mode {
	case BandIntegrated:
		bandMax := band(0, sigma)
		if bandMax > 0 {
			w = band(dch, sigma) / bandMax
		}
	default:
		r := dch / sigma
		w = math.Exp(-0.5 * r * r)
	}

	if math.IsNaN(w) {
		w = 0
	}
	w = math.Max(0, math.Min(1, w))
	if p.Gamma > 0 && p.Gamma != 1 {
		w = math.Pow(w, p.Gamma)
	}
	return w
}

// band is the fraction of a unit-area Gaussian of width sigma, centered
// dch channels away, that falls inside [-0.5, 0.5].
func band(dch, sigma float64) float64 {
	k := sigma * math.Sqrt2
	return 0.5 * (Erf((dch+0.5)/k) - Erf((dch-0.5)/k))
}

// Abramowitz and Stegun 7.1.26 coefficients.
const (
	erfP  = 0.3275911
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
)

// Erf approximates the error function with Abramowitz and Stegun 7.1.26
// (max absolute error about 1.5e-7). Every render path uses this instead of
// math.Erf so their results agree exactly.
func Erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1
		x = -x
	}
	t := 1 / (1 + erfP*x)
	y := 1 - ((((erfA5*t+erfA4)*t+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-x*x)
	return sign * y
}
