package volume

import "math"

// SphereOptions describes the fallback sphere volume.
type SphereOptions struct {
	// Size is the edge length in voxels
	Size int

	// Radius in voxels
	Radius float64

	// Feather is the width of the soft inner edge in voxels
	Feather float64

	// Peak is the density at full value
	Peak float64
}

// DefaultSphere is 128^3 with a radius of 32 voxels. Its peak sits at the top
// of the default log window so the interior maps to full brightness.
func DefaultSphere() SphereOptions {
	return SphereOptions{Size: 128, Radius: 32, Feather: 2, Peak: 1e10}
}

// Sphere builds a centered sphere whose profile is quantized to 256 levels
// and scaled to opts.Peak. Voxels within the radius are at full level; the
// feather band just inside the surface is raised to at least
// floor(255*(1+dist/Feather)), so it never dims an inside voxel. It returns
// the data and the edge length.
func Sphere(opts SphereOptions) ([]float32, int) {
	n := opts.Size
	data := make([]float32, n*n*n)
	c := float64(n-1) / 2
	r2 := opts.Radius * opts.Radius

	ptr := 0
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				dx := float64(x) - c
				dy := float64(y) - c
				dz := float64(z) - c
				d2 := dx*dx + dy*dy + dz*dz

				level := 0.0
				if d2 <= r2 {
					level = 255
				}
				// the feather ramp only ever raises a level, so inside voxels
				// keep the full value
				dist := math.Sqrt(d2) - opts.Radius
				if opts.Feather > 0 && dist > -opts.Feather && dist < 0 {
					level = math.Max(level, math.Floor(255*(1+dist/opts.Feather)))
				}
				data[ptr] = float32(level / 255 * opts.Peak)
				ptr++
			}
		}
	}
	return data, n
}
