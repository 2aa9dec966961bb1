// Package beam simulates observing a rendered frame through an instrument
// with a Gaussian point-spread function and reduces it to a false-color
// moment-like image.
package beam

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"cuberender/pkg/raymarch"
)

const (
	// MinSigma is the blur radius below which convolution is skipped.
	MinSigma = 0.1

	// MaxRadius caps the kernel half-width in texels.
	MaxRadius = 15

	// DefaultPercentile is the fraction of pixels forced to black.
	DefaultPercentile = 0.3
)

// Method selects the convolution implementation.
type Method int

const (
	Direct Method = iota
	FFT
)

func (m Method) String() string {
	if m == FFT {
		return "fft"
	}
	return "direct"
}

// ParseMethod accepts "direct" or "fft". An empty string means Direct.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "", "direct":
		return Direct, nil
	case "fft":
		return FFT, nil
	}
	return Direct, fmt.Errorf("unknown convolution method %q", s)
}

// Params configures Process.
type Params struct {
	Sigma      float64
	Percentile float64
	Method     Method
}

// DefaultParams returns a 2 texel beam with a 30th percentile cut.
func DefaultParams() Params {
	return Params{Sigma: 2.0, Percentile: DefaultPercentile}
}

// Stats describes one pass of Process.
type Stats struct {
	Threshold float64
	Min, Max  float64
	Above     int
}

// Intensity returns the RGB magnitude of every pixel, row-major.
func Intensity(img *raymarch.Image) []float64 {
	out := make([]float64, img.Width*img.Height)
	for i := range out {
		r, g, b := img.Pix[4*i], img.Pix[4*i+1], img.Pix[4*i+2]
		out[i] = math.Sqrt(r*r + g*g + b*b)
	}
	return out
}

// Radius returns the kernel half-width for sigma.
func Radius(sigma float64) int {
	return min(int(math.Ceil(3*sigma)), MaxRadius)
}

// Convolve blurs an intensity field with a truncated Gaussian by direct
// summation. Each output texel is normalized by the weights that fell
// inside the image, so borders are not darkened.
//
// Parameters:
//   - src: Intensities in row-major order, length w*h
//   - w, h: Image width and height in pixels
//   - sigma: PSF width in pixels; the kernel radius is min(ceil(3*sigma), 15)
//
// Returns:
//   - A new blurred field of length w*h, or a copy of src when sigma is
//     below MinSigma
func Convolve(src []float64, w, h int, sigma float64) []float64 {
	if sigma < MinSigma {
		return slices.Clone(src)
	}
	r := Radius(sigma)
	kernel := gaussianKernel(r, sigma)
	size := 2*r + 1

	out := make([]float64, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum, norm float64
			for dy := -r; dy <= r; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := -r; dx <= r; dx++ {
					xx := x + dx
					if xx < 0 || xx >= w {
						continue
					}
					k := kernel[(dy+r)*size+dx+r]
					sum += k * src[yy*w+xx]
					norm += k
				}
			}
			if norm > 0 {
				out[y*w+x] = sum / norm
			}
		}
	}
	return out
}

func gaussianKernel(r int, sigma float64) []float64 {
	size := 2*r + 1
	k := make([]float64, size*size)
	inv := 1 / (2 * sigma * sigma)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			k[(dy+r)*size+dx+r] = math.Exp(-float64(dx*dx+dy*dy) * inv)
		}
	}
	return k
}

// Threshold returns the p-quantile of values using the empirical
// distribution. values is not modified.
func Threshold(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Process runs the full beam pipeline on a rendered frame: intensity,
// convolution, percentile threshold, min/max normalization and colormap.
// The result is always opaque.
func Process(img *raymarch.Image, p Params) (*image.RGBA, Stats) {
	return Colorize(Blur(img, p), img.Width, img.Height, p.Percentile)
}

// Blur returns the PSF-convolved intensity of img, row-major.
func Blur(img *raymarch.Image, p Params) []float64 {
	intensity := Intensity(img)
	if p.Method == FFT {
		return ConvolveFFT(intensity, img.Width, img.Height, p.Sigma)
	}
	return Convolve(intensity, img.Width, img.Height, p.Sigma)
}

// Colorize thresholds and colormaps an already blurred intensity field.
func Colorize(blurred []float64, w, h int, percentile float64) (*image.RGBA, Stats) {
	st := Stats{Threshold: Threshold(blurred, percentile)}

	above := make([]float64, 0, len(blurred))
	for _, v := range blurred {
		if v > st.Threshold {
			above = append(above, v)
		}
	}
	st.Above = len(above)

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	black := color.RGBA{A: 255}
	if len(above) == 0 {
		fill(out, black)
		return out, st
	}
	st.Min, st.Max = floats.Min(above), floats.Max(above)
	span := st.Max - st.Min
	if span <= 0 {
		fill(out, black)
		return out, st
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := blurred[y*w+x]
			if v <= st.Threshold {
				out.SetRGBA(x, y, black)
				continue
			}
			out.SetRGBA(x, y, Colormap.At((v-st.Min)/span))
		}
	}
	return out, st
}

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}
