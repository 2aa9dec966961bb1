package beam

import (
	"math"
	"math/cmplx"
	"slices"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ConvolveFFT computes the same normalized blur as Convolve in the
// frequency domain. The image and an all-ones mask are both convolved with
// the truncated kernel on a zero padded grid, rounded up to a power of two,
// and the first is divided by the second.
func ConvolveFFT(src []float64, w, h int, sigma float64) []float64 {
	if sigma < MinSigma {
		return slices.Clone(src)
	}
	r := Radius(sigma)
	pw, ph := nextPow2(w+r), nextPow2(h+r)

	img := make([]float64, pw*ph)
	mask := make([]float64, pw*ph)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img[y*pw+x] = src[y*w+x]
			mask[y*pw+x] = 1
		}
	}

	// kernel is centered on (0,0) with wraparound
	kern := make([]float64, pw*ph)
	inv := 1 / (2 * sigma * sigma)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			ky, kx := (dy+ph)%ph, (dx+pw)%pw
			kern[ky*pw+kx] = math.Exp(-float64(dx*dx+dy*dy) * inv)
		}
	}

	K := fft2D(kern, pw, ph)
	I := fft2D(img, pw, ph)
	M := fft2D(mask, pw, ph)
	for i := range K {
		I[i] *= K[i]
		M[i] *= K[i]
	}
	sum := ifft2D(I, pw, ph)
	norm := ifft2D(M, pw, ph)

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if n := norm[y*pw+x]; n > 1e-12 {
				out[y*w+x] = sum[y*pw+x] / n
			}
		}
	}
	return out
}

// fft2D transforms a real w x h field, row-major.
//
// Rows go through gonum's real FFT and are completed by conjugate
// symmetry, F(w-k) = conj(F(k)); columns then go through the complex FFT.
//
// Parameters:
//   - data: input field, len(data) == w*h
//   - w, h: field width and height, any positive sizes
//
// Returns:
//   - the unnormalized 2D spectrum, row-major, w*h coefficients
func fft2D(data []float64, w, h int) []complex128 {
	rows := fourier.NewFFT(w)
	result := make([]complex128, w*h)

	half := make([]complex128, w/2+1)
	for i := 0; i < h; i++ {
		rows.Coefficients(half, data[i*w:(i+1)*w])
		row := result[i*w : (i+1)*w]
		copy(row, half)
		for j := len(half); j < w; j++ {
			row[j] = cmplx.Conj(half[w-j])
		}
	}

	cols := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	out := make([]complex128, h)
	for j := 0; j < w; j++ {
		for i := 0; i < h; i++ {
			col[i] = result[i*w+j]
		}
		cols.Coefficients(out, col)
		for i := 0; i < h; i++ {
			result[i*w+j] = out[i]
		}
	}
	return result
}

// ifft2D inverts fft2D and returns the real field. The spectrum must be
// Hermitian, as any product of real-field spectra is. Columns are inverted
// with the complex FFT, then each row with the real FFT from its first
// w/2+1 coefficients. gonum's inverse transforms are unnormalized, so the
// result is divided by w*h.
func ifft2D(spectrum []complex128, w, h int) []float64 {
	buf := make([]complex128, len(spectrum))
	copy(buf, spectrum)

	cols := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	out := make([]complex128, h)
	for j := 0; j < w; j++ {
		for i := 0; i < h; i++ {
			col[i] = buf[i*w+j]
		}
		cols.Sequence(out, col)
		for i := 0; i < h; i++ {
			buf[i*w+j] = out[i]
		}
	}

	rows := fourier.NewFFT(w)
	field := make([]float64, w*h)
	scale := 1 / float64(w*h)
	for i := 0; i < h; i++ {
		row := field[i*w : (i+1)*w]
		rows.Sequence(row, buf[i*w:i*w+w/2+1])
		for j := range row {
			row[j] *= scale
		}
	}
	return field
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
