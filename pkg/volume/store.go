// Package volume holds the density and spectral volumes a frame renders
// from. Loaded data is published as an immutable Snapshot; a failed load
// leaves the previous snapshot in place.
package volume

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/spatial/r3"

	"cuberender/internal/models"
)

var (
	// ErrShapeMismatch is returned when declared dimensions do not match the payload length.
	ErrShapeMismatch = errors.New("volume: declared dimensions do not match data length")

	// ErrDimensionMismatch is returned when spectral volumes do not match the density dimensions.
	ErrDimensionMismatch = errors.New("volume: spectral dimensions do not match density")

	// ErrNoDensity is returned when spectral data arrives before any density volume.
	ErrNoDensity = errors.New("volume: no density volume loaded")
)

// Store owns the current volume snapshot. Readers call Snapshot once per
// frame and keep using that value; loaders replace it atomically.
type Store struct {
	current atomic.Pointer[Snapshot]

	// mu serializes loaders and guards pendingScale
	mu           sync.Mutex
	pendingScale bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns the last complete snapshot, or nil before the first load.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// LoadDensity validates and publishes a new density volume. Spectral data
// from the previous snapshot is dropped because it annotates other voxels.
func (s *Store) LoadDensity(data []float32, nx, ny, nz int, b models.Bounds) error {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return fmt.Errorf("invalid dimensions %dx%dx%d: %w", nx, ny, nz, ErrShapeMismatch)
	}
	if len(data) != nx*ny*nz {
		return fmt.Errorf("got %d samples for %dx%dx%d: %w", len(data), nx, ny, nz, ErrShapeMismatch)
	}

	density := &models.Volume{Data: data, Nx: nx, Ny: ny, Nz: nz}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(newSnapshot(density, nil, models.FrequencyAxis{}, b))
	s.pendingScale = true
	glog.Infof("Loaded density volume %dx%dx%d, bounds %+v", nx, ny, nz, b)
	return nil
}

// LoadDensityBytes publishes a byte volume, mapping each byte b to b/255*peak.
func (s *Store) LoadDensityBytes(data []byte, nx, ny, nz int, b models.Bounds, peak float64) error {
	values := make([]float32, len(data))
	for i, v := range data {
		values[i] = float32(float64(v) / 255.0 * peak)
	}
	return s.LoadDensity(values, nx, ny, nz, b)
}

// LoadSpectral attaches auxiliary spectral volumes to the current density.
// The arrays arrive in (y,x,z) fastest-to-slowest order and are
// re-linearized once here. velocity may be nil, in which case it is derived
// from the center index. Line widths are converted to channel units when
// they look like Hz.
func (s *Store) LoadSpectral(center, width, velocity []float32, axis models.FrequencyAxis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.current.Load()
	if snap == nil {
		return ErrNoDensity
	}
	d := snap.Density
	n := d.Len()
	if len(center) != n || len(width) != n || (velocity != nil && len(velocity) != n) {
		return fmt.Errorf("center=%d width=%d velocity=%d, density=%d: %w",
			len(center), len(width), len(velocity), n, ErrDimensionMismatch)
	}

	c := Relinearize(center, d.Nx, d.Ny, d.Nz)
	w := Relinearize(width, d.Nx, d.Ny, d.Nz)
	NormalizeLineWidths(w, axis)

	var v []float32
	if velocity != nil {
		v = Relinearize(velocity, d.Nx, d.Ny, d.Nz)
	} else {
		v = DeriveVelocity(c, axis.Channels())
	}

	fields := &models.SpectralFields{
		CenterIndex: &models.Volume{Data: c, Nx: d.Nx, Ny: d.Ny, Nz: d.Nz},
		LineWidth:   &models.Volume{Data: w, Nx: d.Nx, Ny: d.Ny, Nz: d.Nz},
		Velocity:    &models.Volume{Data: v, Nx: d.Nx, Ny: d.Ny, Nz: d.Nz},
	}
	s.current.Store(newSnapshot(d, fields, axis, snap.Bounds))
	glog.Infof("Loaded spectral fields for %d channels", axis.Channels())
	return nil
}

// LoadSynthetic publishes the fallback sphere.
func (s *Store) LoadSynthetic(opts SphereOptions) error {
	data, n := Sphere(opts)
	return s.LoadDensity(data, n, n, n, models.UnitBounds)
}

// Frame returns the snapshot a frame should render and, if its bounds
// arrived since the previous call, the render-box scale to apply. Both are
// read under the loader lock, so the scale always belongs to the returned
// snapshot. The pending flag is cleared. snap is nil before the first load.
func (s *Store) Frame() (snap *Snapshot, scale r3.Vec, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap = s.current.Load()
	if snap == nil || !s.pendingScale {
		return snap, r3.Vec{}, false
	}
	s.pendingScale = false
	return snap, snap.Scale, true
}
