package models

import "math"

// Bounds is the physical extent of a volume along each axis.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
}

// UnitBounds is the extent used when no physical bounds are known.
var UnitBounds = Bounds{XMin: -0.5, XMax: 0.5, YMin: -0.5, YMax: 0.5, ZMin: -0.5, ZMax: 0.5}

// Scale returns the per-axis render-box scale: each side length divided by
// the longest side, so the longest axis maps to 1.0 and aspect is preserved.
func (b Bounds) Scale() (sx, sy, sz float64) {
	lx := math.Abs(b.XMax - b.XMin)
	ly := math.Abs(b.YMax - b.YMin)
	lz := math.Abs(b.ZMax - b.ZMin)
	maxL := math.Max(math.Max(lx, ly), math.Max(lz, 1e-6))
	return lx / maxL, ly / maxL, lz / maxL
}

// Volume is a 3D scalar grid stored as a flat array in x-fastest order
type Volume struct {
	// Data holds Nx*Ny*Nz samples, index x + y*Nx + z*Nx*Ny
	Data []float32

	// Dimensions in voxels
	Nx, Ny, Nz int
}

// Index returns the flat index of voxel (x, y, z).
func (v *Volume) Index(x, y, z int) int {
	return x + y*v.Nx + z*v.Nx*v.Ny
}

// Len is the number of voxels implied by the dimensions.
func (v *Volume) Len() int {
	return v.Nx * v.Ny * v.Nz
}

// SpectralFields are the per-voxel line statistics used in frequency mode.
// All three volumes share the dimensions of the density they annotate.
type SpectralFields struct {
	// CenterIndex is the fractional channel of peak line intensity
	CenterIndex *Volume

	// LineWidth is the line width in channel units
	LineWidth *Volume

	// Velocity is the normalized Doppler parameter, nominally in [-1, 1]
	Velocity *Volume
}

// FrequencyAxis holds the ordered channel center frequencies in Hz.
type FrequencyAxis struct {
	Frequencies []float64
}

// Channels returns the number of channels on the axis.
func (a FrequencyAxis) Channels() int {
	return len(a.Frequencies)
}
