// Package visualization writes rendered frames, observation images, density
// slice previews and intensity histograms to disk.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"cuberender/internal/models"
	"cuberender/pkg/raymarch"
)

// Viewer extracts grayscale slices from a density volume. Samples are
// mapped through the same log window the renderer uses.
type Viewer struct {
	vol *models.Volume

	logMin float64
	logMax float64
}

// NewViewer creates a slice viewer for vol.
func NewViewer(vol *models.Volume, logMin, logMax float64) *Viewer {
	return &Viewer{vol: vol, logMin: logMin, logMax: logMax}
}

// extent returns the number of slices along axis.
func (v *Viewer) extent(axis string) (int, error) {
	switch axis {
	case "x", "X":
		return v.vol.Nx, nil
	case "y", "Y":
		return v.vol.Ny, nil
	case "z", "Z":
		return v.vol.Nz, nil
	}
	return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
}

// ExtractSlice extracts the 2D slice at position along axis. An x slice is
// laid out (z, y), a y slice (x, z) and a z slice (x, y).
func (v *Viewer) ExtractSlice(axis string, position int) (*image.Gray, error) {
	n, err := v.extent(axis)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= n {
		return nil, fmt.Errorf("position %d outside [0,%d) along %s", position, n, axis)
	}

	vol := v.vol
	var w, h int
	var at func(i, j int) int
	switch axis {
	case "x", "X":
		w, h = vol.Nz, vol.Ny
		at = func(i, j int) int { return vol.Index(position, j, i) }
	case "y", "Y":
		w, h = vol.Nx, vol.Nz
		at = func(i, j int) int { return vol.Index(i, position, j) }
	default:
		w, h = vol.Nx, vol.Ny
		at = func(i, j int) int { return vol.Index(i, j, position) }
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			s := raymarch.Transfer(float64(vol.Data[at(i, j)]), v.logMin, v.logMax)
			img.SetGray(i, j, color.Gray{Y: uint8(s*255 + 0.5)})
		}
	}
	return img, nil
}

// SaveSliceSequence saves count evenly spaced slices along axis to
// outputDir and returns the written paths. count <= 0 saves every slice.
func (v *Viewer) SaveSliceSequence(axis, outputDir string, count int) ([]string, error) {
	n, err := v.extent(axis)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create slice directory: %w", err)
	}
	if count <= 0 || count > n {
		count = n
	}

	paths := make([]string, 0, count)
	for k := 0; k < count; k++ {
		pos := k * n / count
		if count > 1 {
			pos = k * (n - 1) / (count - 1)
		}
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return paths, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := SavePNG(img, filename); err != nil {
			return paths, err
		}
		paths = append(paths, filename)
	}
	return paths, nil
}
