package volume

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"cuberender/internal/models"
)

func TestLoadDensityRejectsShapeMismatch(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.LoadDensity(make([]float32, 8), 2, 2, 2, models.UnitBounds))
	before := s.Snapshot()

	err := s.LoadDensity(make([]float32, 7), 2, 2, 2, models.UnitBounds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	// previous snapshot is still served
	assert.Same(t, before, s.Snapshot())
}

func TestLoadDensityRejectsNonPositiveDims(t *testing.T) {
	s := NewStore()
	err := s.LoadDensity(nil, 0, 1, 1, models.UnitBounds)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Nil(t, s.Snapshot())
}

func TestLoadDensityBytes(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.LoadDensityBytes([]byte{0, 255}, 2, 1, 1, models.UnitBounds, 100))
	d := s.Snapshot().Density
	assert.Equal(t, float32(0), d.Data[0])
	assert.InDelta(t, 100, d.Data[1], 1e-4)
}

func TestFramePendingScaleTakenOnce(t *testing.T) {
	s := NewStore()
	snap, _, ok := s.Frame()
	assert.Nil(t, snap)
	assert.False(t, ok, "no data, no scale")

	b := models.Bounds{XMin: 0, XMax: 4, YMin: 0, YMax: 2, ZMin: -1, ZMax: 0}
	require.NoError(t, s.LoadDensity(make([]float32, 1), 1, 1, 1, b))

	snap, scale, ok := s.Frame()
	require.True(t, ok)
	assert.Same(t, s.Snapshot(), snap)
	assert.Equal(t, r3.Vec{X: 1, Y: 0.5, Z: 0.25}, scale)

	snap, _, ok = s.Frame()
	assert.False(t, ok, "scale must only be applied once per load")
	assert.NotNil(t, snap)
}

func TestFrameScaleMatchesSnapshot(t *testing.T) {
	s := NewStore()
	flat := models.Bounds{XMin: 0, XMax: 2, YMin: 0, YMax: 2, ZMin: 0, ZMax: 1}
	tall := models.Bounds{XMin: 0, XMax: 1, YMin: 0, YMax: 4, ZMin: 0, ZMax: 1}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			b := flat
			if i%2 == 1 {
				b = tall
			}
			assert.NoError(t, s.LoadDensity(make([]float32, 1), 1, 1, 1, b))
		}
	}()
	for i := 0; i < 200; i++ {
		snap, scale, ok := s.Frame()
		if ok {
			require.Equal(t, snap.Scale, scale, "scale taken from a different snapshot")
		}
	}
	wg.Wait()
}

func TestLoadSpectralRequiresDensity(t *testing.T) {
	s := NewStore()
	err := s.LoadSpectral([]float32{0}, []float32{1}, nil, models.FrequencyAxis{})
	assert.ErrorIs(t, err, ErrNoDensity)
}

func TestLoadSpectralDimensionMismatch(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.LoadDensity(make([]float32, 8), 2, 2, 2, models.UnitBounds))

	err := s.LoadSpectral(make([]float32, 8), make([]float32, 4), nil, models.FrequencyAxis{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.False(t, s.Snapshot().HasSpectral())
}

func TestLoadSpectralRelinearizesAndDerivesVelocity(t *testing.T) {
	nx, ny, nz := 3, 2, 1
	s := NewStore()
	require.NoError(t, s.LoadDensity(make([]float32, nx*ny*nz), nx, ny, nz, models.UnitBounds))

	// source order: y fastest, then x
	center := make([]float32, nx*ny)
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			center[y+x*ny] = float32(10*x + y)
		}
	}
	width := make([]float32, nx*ny)
	for i := range width {
		width[i] = 1
	}
	axis := models.FrequencyAxis{Frequencies: []float64{1, 2, 3, 4, 5}}
	require.NoError(t, s.LoadSpectral(center, width, nil, axis))

	snap := s.Snapshot()
	require.True(t, snap.HasSpectral())
	c := snap.Spectral.CenterIndex
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			assert.Equal(t, float32(10*x+y), c.Data[c.Index(x, y, 0)], "voxel (%d,%d)", x, y)
		}
	}

	// center 0 lies two channels below the middle of 5 channels
	v := snap.Spectral.Velocity
	assert.InDelta(t, -0.8, v.Data[v.Index(0, 0, 0)], 1e-6)
	assert.InDelta(t, 1.0, v.Data[v.Index(2, 1, 0)], 1e-6, "clamped")
}

func TestSampleDensityOutsideIsZero(t *testing.T) {
	s := NewStore()
	data := []float32{5, 5, 5, 5, 5, 5, 5, 5}
	require.NoError(t, s.LoadDensity(data, 2, 2, 2, models.UnitBounds))
	snap := s.Snapshot()

	assert.InDelta(t, 5, snap.SampleDensity(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}), 1e-9)
	assert.Equal(t, 0.0, snap.SampleDensity(r3.Vec{X: -0.01, Y: 0.5, Z: 0.5}))
	assert.Equal(t, 0.0, snap.SampleDensity(r3.Vec{X: 0.5, Y: 1.01, Z: 0.5}))
}

func TestSampleDensityTrilinear(t *testing.T) {
	s := NewStore()
	// value equals x index
	require.NoError(t, s.LoadDensity([]float32{0, 1, 0, 1, 0, 1, 0, 1}, 2, 2, 2, models.UnitBounds))
	snap := s.Snapshot()

	// texel centers sit at 0.25 and 0.75
	assert.InDelta(t, 0.0, snap.SampleDensity(r3.Vec{X: 0.25, Y: 0.5, Z: 0.5}), 1e-12)
	assert.InDelta(t, 0.5, snap.SampleDensity(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}), 1e-12)
	assert.InDelta(t, 1.0, snap.SampleDensity(r3.Vec{X: 0.9, Y: 0.1, Z: 0.9}), 1e-12, "clamped to edge texel")
}

func TestSampleSpectralWithoutFields(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.LoadDensity(make([]float32, 1), 1, 1, 1, models.UnitBounds))
	_, ok := s.Snapshot().SampleSpectral(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})
	assert.False(t, ok)
}

func TestLoadSyntheticSphere(t *testing.T) {
	s := NewStore()
	opts := SphereOptions{Size: 16, Radius: 4, Feather: 1, Peak: 10}
	require.NoError(t, s.LoadSynthetic(opts))

	snap := s.Snapshot()
	require.NotNil(t, snap)
	d := snap.Density
	assert.Equal(t, 16, d.Nx)
	assert.InDelta(t, 10, d.Data[d.Index(8, 8, 8)], 1e-6, "interior at peak")
	assert.Equal(t, float32(0), d.Data[d.Index(0, 0, 0)], "corner empty")
}

func TestSphereFullValueUpToSurface(t *testing.T) {
	data, n := Sphere(SphereOptions{Size: 128, Radius: 32, Feather: 2, Peak: 255})
	require.Equal(t, 128, n)
	vol := models.Volume{Data: data, Nx: n, Ny: n, Nz: n}

	// x=95 sits about half a voxel inside the surface, inside the feather band
	for _, x := range []int{64, 93, 94, 95} {
		assert.Equal(t, float32(255), data[vol.Index(x, 64, 64)], "x=%d", x)
	}
	assert.Equal(t, float32(0), data[vol.Index(96, 64, 64)], "first voxel outside the radius")
	assert.Equal(t, float32(0), data[vol.Index(0, 0, 0)])
}
