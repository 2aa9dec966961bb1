// Package raymarch renders a density volume by marching camera rays through
// its bounding box and compositing Beer-Lambert absorption front to back.
package raymarch

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"cuberender/pkg/spectral"
	"cuberender/pkg/volume"
)

const (
	// MaxSteps caps the number of samples along one ray.
	MaxSteps = 768

	// MinTransmittance ends a ray once it is effectively opaque.
	MinTransmittance = 0.01
)

// RenderMode selects how samples are shaded.
type RenderMode int

const (
	// Plain shades by transfer-function brightness only.
	Plain RenderMode = iota

	// Frequency shades by channel weight and Doppler velocity.
	Frequency
)

func (m RenderMode) String() string {
	if m == Frequency {
		return "freq"
	}
	return "plain"
}

// ParseRenderMode accepts "plain" or "freq".
func ParseRenderMode(s string) (RenderMode, error) {
	switch s {
	case "", "plain":
		return Plain, nil
	case "freq", "frequency":
		return Frequency, nil
	}
	return Plain, fmt.Errorf("unknown render mode %q", s)
}

// Params is the immutable per-frame render configuration.
type Params struct {
	Mode RenderMode

	DensityGain float64
	LogMin      float64
	LogMax      float64

	// StepScale is the ray step as a fraction of one voxel along x
	StepScale float64

	// Background is the brightness off-channel voxels fade toward
	Background float64

	Weight spectral.WeightParams

	// DebugWeight outputs the frequency weight as grayscale
	DebugWeight bool
}

// StepSize returns the ray step in local box units for a volume nx voxels wide.
func StepSize(stepScale float64, nx int) float64 {
	if nx <= 0 {
		nx = 1
	}
	if !(stepScale > 0) {
		stepScale = 1
	}
	return stepScale / float64(nx)
}

// Sampler reads the volumes at normalized coordinates.
type Sampler interface {
	SampleDensity(uvw r3.Vec) float64
	SampleSpectral(uvw r3.Vec) (volume.SpectralSample, bool)
}

// Compositor marches rays through a box of half-extent HalfExtent in local
// space. World space is local space scaled per axis by Scale.
type Compositor struct {
	sampler Sampler
	params  Params
	step    float64

	HalfExtent r3.Vec
	Scale      r3.Vec
}

// NewCompositor creates a compositor with the unit render box [-0.5, 0.5]^3
// and no world scaling.
func NewCompositor(s Sampler, p Params, step float64) *Compositor {
	return &Compositor{
		sampler:    s,
		params:     p,
		step:       step,
		HalfExtent: r3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
		Scale:      r3.Vec{X: 1, Y: 1, Z: 1},
	}
}

// MarchRay integrates one ray front to back through the render box.
// Samples are taken at a fixed step along the clipped segment and composited
// with Beer-Lambert absorption. The march stops after MaxSteps samples or
// once transmittance falls below MinTransmittance.
//
// Parameters:
//   - ro: Ray origin in local (box-centered) space
//   - rd: Normalized ray direction in the same space
//
// Returns:
//   - The premultiplied pixel, or a transparent pixel without sampling when
//     the ray misses the box
func (c *Compositor) MarchRay(ro, rd r3.Vec) Pixel {
	tmin, tmax, ok := IntersectBox(ro, rd, c.HalfExtent)
	if !ok {
		return Pixel{}
	}

	p := c.params
	var acc Pixel
	trans := 1.0
	t := math.Max(tmin, 0)
	twoH := r3.Scale(2, c.HalfExtent)

	for i := 0; i < MaxSteps; i++ {
		if t > tmax || trans < MinTransmittance {
			break
		}
		pos := r3.Add(ro, r3.Scale(t, rd))
		uvw := r3.Vec{
			X: pos.X/twoH.X + 0.5,
			Y: pos.Y/twoH.Y + 0.5,
			Z: pos.Z/twoH.Z + 0.5,
		}

		s := Transfer(c.sampler.SampleDensity(uvw), p.LogMin, p.LogMax)
		if s > 0 {
			sh := c.shade(uvw, s)
			a := 1 - math.Exp(-s*p.DensityGain*sh.Opacity*c.step)
			acc.R += trans * a * sh.R
			acc.G += trans * a * sh.G
			acc.B += trans * a * sh.B
			trans *= 1 - a
		}
		t += c.step
	}

	acc.A = 1 - trans
	return acc
}

func (c *Compositor) shade(uvw r3.Vec, s float64) spectral.Shade {
	p := c.params
	if p.Mode != Frequency {
		return spectral.Plain(s)
	}
	line, ok := c.sampler.SampleSpectral(uvw)
	if !ok {
		return spectral.Plain(s)
	}
	w := spectral.Weight(line.Center, line.Width, p.Weight)
	if p.DebugWeight {
		return spectral.DebugWeight(w, p.Background)
	}
	return spectral.Doppler(w, line.Velocity, s, p.Background)
}

// LocalRay converts a world-space ray into the compositor's local space.
func (c *Compositor) LocalRay(origin, dir r3.Vec) (ro, rd r3.Vec) {
	ro = r3.Vec{X: origin.X / c.Scale.X, Y: origin.Y / c.Scale.Y, Z: origin.Z / c.Scale.Z}
	rd = r3.Unit(r3.Vec{X: dir.X / c.Scale.X, Y: dir.Y / c.Scale.Y, Z: dir.Z / c.Scale.Z})
	return ro, rd
}

// Render draws a width x height image from cam. Rows are split into bands
// rendered on up to cores goroutines; every pixel depends only on its own
// ray, so the result does not depend on the band layout. Cancelling ctx
// stops scheduling further bands.
func (c *Compositor) Render(ctx context.Context, cam Camera, width, height, cores int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if cores < 1 {
		cores = 1
	}

	img := NewImage(width, height)
	rowsPerBand := (height + cores*4 - 1) / (cores * 4)
	if rowsPerBand < 1 {
		rowsPerBand = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cores)
	for start := 0; start < height; start += rowsPerBand {
		if gctx.Err() != nil {
			break
		}
		y0, y1 := start, min(start+rowsPerBand, height)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for y := y0; y < y1; y++ {
				for x := 0; x < width; x++ {
					ro, rd := c.LocalRay(cam.Position, cam.Ray(x, y, width, height))
					img.Set(x, y, c.MarchRay(ro, rd))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return img, nil
}
