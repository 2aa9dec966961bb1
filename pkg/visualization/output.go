package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"cuberender/pkg/raymarch"
)

// SavePNG encodes img to filename, creating parent directories.
func SavePNG(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return file.Close()
}

// ToNRGBA converts a premultiplied render to straight alpha for saving.
func ToNRGBA(img *raymarch.Image) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := img.At(x, y)
			if p.A <= 0 {
				continue
			}
			out.SetNRGBA(x, y, color.NRGBA{
				R: unit8(p.R / p.A),
				G: unit8(p.G / p.A),
				B: unit8(p.B / p.A),
				A: unit8(p.A),
			})
		}
	}
	return out
}

func unit8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// SaveHistogram plots the distribution of blurred intensities with a
// vertical marker at threshold.
func SaveHistogram(values []float64, threshold float64, bins int, filename string) error {
	if len(values) == 0 {
		return errors.New("no values to plot")
	}
	if floats.Min(values) == floats.Max(values) {
		return errors.New("intensities have no spread")
	}

	p := plot.New()
	p.Title.Text = "Blurred intensity"
	p.X.Label.Text = "Intensity"
	p.Y.Label.Text = "Pixels"

	hist, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return err
	}
	hist.FillColor = color.RGBA{R: 59, G: 82, B: 139, A: 255}
	p.Add(hist)

	var top float64
	for _, b := range hist.Bins {
		top = math.Max(top, b.Weight)
	}
	marker, err := plotter.NewLine(plotter.XYs{{X: threshold, Y: 0}, {X: threshold, Y: top}})
	if err != nil {
		return err
	}
	marker.Color = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	marker.Width = vg.Points(1.5)
	p.Add(marker)
	p.Legend.Add("threshold", marker)

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := p.Save(8*vg.Inch, 5*vg.Inch, filename); err != nil {
		return fmt.Errorf("failed to save histogram: %w", err)
	}
	return nil
}
