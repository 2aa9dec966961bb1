package volume

import (
	"math"
	"slices"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/stat"

	"cuberender/internal/models"
)

// hzWidthMedian is the median line width above which widths are taken to be in Hz.
const hzWidthMedian = 10.0

// Relinearize converts an array stored with y fastest, then x, then z into
// x + y*nx + z*nx*ny order.
func Relinearize(src []float32, nx, ny, nz int) []float32 {
	dst := make([]float32, len(src))
	for z := 0; z < nz; z++ {
		for x := 0; x < nx; x++ {
			for y := 0; y < ny; y++ {
				srcIdx := y + x*ny + z*nx*ny
				dstIdx := x + y*nx + z*nx*ny
				dst[dstIdx] = src[srcIdx]
			}
		}
	}
	return dst
}

// ChannelSpacing returns the mean absolute difference between consecutive
// channel frequencies, or 0 for fewer than two channels.
func ChannelSpacing(axis models.FrequencyAxis) float64 {
	f := axis.Frequencies
	if len(f) < 2 {
		return 0
	}
	diffs := make([]float64, len(f)-1)
	for i := 1; i < len(f); i++ {
		diffs[i-1] = math.Abs(f[i] - f[i-1])
	}
	return stat.Mean(diffs, nil)
}

// NormalizeLineWidths converts widths to channel units in place when their
// median exceeds 10, treating them as Hz. It reports whether it converted.
func NormalizeLineWidths(widths []float32, axis models.FrequencyAxis) bool {
	if len(widths) == 0 {
		return false
	}
	spacing := ChannelSpacing(axis)
	if spacing <= 0 {
		return false
	}

	sorted := make([]float64, len(widths))
	for i, w := range widths {
		sorted[i] = float64(w)
	}
	slices.Sort(sorted)
	med := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if med <= hzWidthMedian {
		return false
	}

	glog.Infof("Line-width median %.4g looks like Hz, dividing by channel spacing %.4g", med, spacing)
	for i := range widths {
		widths[i] = float32(float64(widths[i]) / spacing)
	}
	return true
}

// DeriveVelocity maps each voxel's center channel onto [-1, 1] around the
// middle of the band, for datasets that ship no velocity field.
func DeriveVelocity(center []float32, channels int) []float32 {
	v := make([]float32, len(center))
	if channels < 2 {
		return v
	}
	mid := float64(channels-1) / 2
	half := float64(channels) / 2
	for i, c := range center {
		x := (float64(c) - mid) / half
		v[i] = float32(math.Max(-1, math.Min(1, x)))
	}
	return v
}
