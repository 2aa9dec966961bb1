package beam

import (
	"image/color"
	"math"
)

// Palette is a 256-entry lookup table.
type Palette [256]color.RGBA

// Colormap is the perceptual map used for observation images, linearly
// interpolated between viridis control colors.
var Colormap = NewPalette([]color.RGBA{
	{68, 1, 84, 255},
	{59, 82, 139, 255},
	{33, 145, 140, 255},
	{94, 201, 98, 255},
	{253, 231, 37, 255},
})

// NewPalette spreads stops evenly over 256 entries.
func NewPalette(stops []color.RGBA) *Palette {
	var p Palette
	if len(stops) == 0 {
		return &p
	}
	if len(stops) == 1 {
		for i := range p {
			p[i] = stops[0]
		}
		return &p
	}
	segs := float64(len(stops) - 1)
	for i := range p {
		t := float64(i) / 255 * segs
		j := min(int(t), len(stops)-2)
		f := t - float64(j)
		a, b := stops[j], stops[j+1]
		p[i] = color.RGBA{
			R: lerp8(a.R, b.R, f),
			G: lerp8(a.G, b.G, f),
			B: lerp8(a.B, b.B, f),
			A: 255,
		}
	}
	return &p
}

// At maps v in [0,1] to a color. Out of range values are clamped.
func (p *Palette) At(v float64) color.RGBA {
	if math.IsNaN(v) {
		v = 0
	}
	i := int(math.Round(math.Max(0, math.Min(1, v)) * 255))
	return p[i]
}

func lerp8(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}
