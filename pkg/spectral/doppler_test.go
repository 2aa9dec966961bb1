package spectral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDopplerRamp(t *testing.T) {
	tests := []struct {
		v       float64
		r, g, b float64
	}{
		{-1, 0, 0, 1},
		{-5, 0, 0, 1},
		{-0.05, 1, 1, 1},
		{0, 1, 1, 1},
		{0.05, 1, 1, 1},
		{1, 1, 0, 0},
		{3, 1, 0, 0},
		{0.525, 1, 0.5, 0.5},
		{-0.525, 0.5, 0.5, 1},
	}
	for _, tt := range tests {
		r, g, b := DopplerRamp(tt.v)
		assert.InDelta(t, tt.r, r, 1e-12, "v=%f r", tt.v)
		assert.InDelta(t, tt.g, g, 1e-12, "v=%f g", tt.v)
		assert.InDelta(t, tt.b, b, 1e-12, "v=%f b", tt.v)
	}
}

func TestDopplerFullWeight(t *testing.T) {
	sh := Doppler(1, 1, 0.4, 0.2)
	assert.InDelta(t, 0.6, sh.R, 1e-12)
	assert.InDelta(t, 0.0, sh.G, 1e-12)
	assert.InDelta(t, 0.0, sh.B, 1e-12)
	assert.InDelta(t, 1.0, sh.Opacity, 1e-12)
}

func TestDopplerZeroWeightFadesToBackground(t *testing.T) {
	sh := Doppler(0, -1, 0.5, 0.2)
	assert.InDelta(t, 0.1, sh.R, 1e-12)
	assert.InDelta(t, 0.1, sh.G, 1e-12)
	assert.InDelta(t, 0.1, sh.B, 1e-12)
	assert.InDelta(t, 0.2, sh.Opacity, 1e-12)
}

func TestPlain(t *testing.T) {
	assert.Equal(t, Shade{R: 0.3, G: 0.3, B: 0.3, Opacity: 1}, Plain(0.3))
}
