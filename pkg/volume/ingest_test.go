package volume

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"cuberender/internal/models"
)

func TestRelinearize(t *testing.T) {
	nx, ny, nz := 2, 3, 2
	src := make([]float32, nx*ny*nz)
	for z := 0; z < nz; z++ {
		for x := 0; x < nx; x++ {
			for y := 0; y < ny; y++ {
				src[y+x*ny+z*nx*ny] = float32(100*z + 10*y + x)
			}
		}
	}

	got := Relinearize(src, nx, ny, nz)

	want := make([]float32, nx*ny*nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				want[x+y*nx+z*nx*ny] = float32(100*z + 10*y + x)
			}
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Relinearize mismatch (-want +got):\n%s", diff)
	}
}

func TestChannelSpacing(t *testing.T) {
	tests := []struct {
		name  string
		freqs []float64
		want  float64
	}{
		{"empty", nil, 0},
		{"single", []float64{1e9}, 0},
		{"increasing", []float64{100, 110, 120}, 10},
		{"decreasing", []float64{120, 110, 100, 90}, 10},
		{"uneven", []float64{0, 1, 4}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChannelSpacing(models.FrequencyAxis{Frequencies: tt.freqs})
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestNormalizeLineWidthsHz(t *testing.T) {
	axis := models.FrequencyAxis{Frequencies: []float64{1e9, 1e9 + 500, 1e9 + 1000}}
	widths := []float32{1000, 1500, 2000}

	converted := NormalizeLineWidths(widths, axis)
	assert.True(t, converted)
	assert.Equal(t, []float32{2, 3, 4}, widths)
}

func TestNormalizeLineWidthsChannelUnits(t *testing.T) {
	axis := models.FrequencyAxis{Frequencies: []float64{1, 2, 3}}
	widths := []float32{0.5, 2, 40}

	// median is 2, already channels
	assert.False(t, NormalizeLineWidths(widths, axis))
	assert.Equal(t, []float32{0.5, 2, 40}, widths)
}

func TestNormalizeLineWidthsNoSpacing(t *testing.T) {
	widths := []float32{100, 200}
	assert.False(t, NormalizeLineWidths(widths, models.FrequencyAxis{}))
}

func TestDeriveVelocitySingleChannel(t *testing.T) {
	assert.Equal(t, []float32{0, 0}, DeriveVelocity([]float32{3, 7}, 1))
}
