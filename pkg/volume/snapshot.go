package volume

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"cuberender/internal/models"
)

// Snapshot is an immutable view of the loaded volumes.
type Snapshot struct {
	Density  *models.Volume
	Spectral *models.SpectralFields
	Axis     models.FrequencyAxis
	Bounds   models.Bounds

	// Scale is the aspect-preserving render-box scale derived from Bounds
	Scale r3.Vec
}

func newSnapshot(d *models.Volume, f *models.SpectralFields, axis models.FrequencyAxis, b models.Bounds) *Snapshot {
	sx, sy, sz := b.Scale()
	return &Snapshot{
		Density:  d,
		Spectral: f,
		Axis:     axis,
		Bounds:   b,
		Scale:    r3.Vec{X: sx, Y: sy, Z: sz},
	}
}

// HasSpectral reports whether frequency mode can be used.
func (s *Snapshot) HasSpectral() bool {
	return s.Spectral != nil
}

// SpectralSample is the line statistics at one sample point.
type SpectralSample struct {
	Center   float64
	Width    float64
	Velocity float64
}

// SampleDensity trilinearly samples the density at normalized coordinates.
// Points outside [0,1]^3 read as zero.
func (s *Snapshot) SampleDensity(uvw r3.Vec) float64 {
	c, ok := cornersAt(s.Density, uvw)
	if !ok {
		return 0
	}
	return c.sample(s.Density.Data)
}

// SampleSpectral trilinearly samples the spectral fields at normalized
// coordinates. The second result is false outside the volume or when no
// spectral data is loaded.
func (s *Snapshot) SampleSpectral(uvw r3.Vec) (SpectralSample, bool) {
	if s.Spectral == nil {
		return SpectralSample{}, false
	}
	c, ok := cornersAt(s.Density, uvw)
	if !ok {
		return SpectralSample{}, false
	}
	return SpectralSample{
		Center:   c.sample(s.Spectral.CenterIndex.Data),
		Width:    c.sample(s.Spectral.LineWidth.Data),
		Velocity: c.sample(s.Spectral.Velocity.Data),
	}, true
}

// corners holds the eight voxel indices and weights around a sample point.
type corners struct {
	idx [8]int
	w   [8]float64
}

func (c *corners) sample(data []float32) float64 {
	var v float64
	for i := 0; i < 8; i++ {
		v += c.w[i] * float64(data[c.idx[i]])
	}
	return v
}

// cornersAt maps uvw to texel space with texel centers at (i+0.5)/N and
// clamps to the edge texels, the way hardware linear filtering does.
func cornersAt(v *models.Volume, uvw r3.Vec) (corners, bool) {
	var c corners
	if !inUnitCube(uvw) {
		return c, false
	}

	x0, x1, fx := axisSpan(uvw.X, v.Nx)
	y0, y1, fy := axisSpan(uvw.Y, v.Ny)
	z0, z1, fz := axisSpan(uvw.Z, v.Nz)

	xs := [2]int{x0, x1}
	ys := [2]int{y0, y1}
	zs := [2]int{z0, z1}
	wx := [2]float64{1 - fx, fx}
	wy := [2]float64{1 - fy, fy}
	wz := [2]float64{1 - fz, fz}

	i := 0
	for k := 0; k < 2; k++ {
		for j := 0; j < 2; j++ {
			for h := 0; h < 2; h++ {
				c.idx[i] = v.Index(xs[h], ys[j], zs[k])
				c.w[i] = wx[h] * wy[j] * wz[k]
				i++
			}
		}
	}
	return c, true
}

func inUnitCube(p r3.Vec) bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1 && p.Z >= 0 && p.Z <= 1
}

func axisSpan(u float64, n int) (i0, i1 int, frac float64) {
	f := u*float64(n) - 0.5
	if f <= 0 {
		return 0, 0, 0
	}
	if f >= float64(n-1) {
		return n - 1, n - 1, 0
	}
	fl := math.Floor(f)
	i0 = int(fl)
	return i0, i0 + 1, f - fl
}
