package pipeline

import (
	"errors"

	"github.com/golang/glog"

	"cuberender/pkg/config"
	"cuberender/pkg/volume"
)

// LoadData fills store from the data section of cfg. A density volume that
// fails to load is reported and replaced by the synthetic sphere; spectral
// files that fail to load leave the density without spectral fields. Only
// a failure of the fallback itself is returned.
func LoadData(store *volume.Store, cfg *config.Config) error {
	d := cfg.Data
	if d.DensityRaw == "" {
		glog.Infof("No density dataset configured, using synthetic sphere")
		return loadSphere(store, d.SpherePeak)
	}

	if err := store.LoadRaw(d.DensityMeta, d.DensityRaw); err != nil {
		if errors.Is(err, volume.ErrShapeMismatch) {
			glog.Warningf("Density %s has the wrong shape, falling back: %v", d.DensityRaw, err)
		} else {
			glog.Warningf("Failed to load density %s, falling back: %v", d.DensityRaw, err)
		}
		if store.Snapshot() != nil {
			return nil
		}
		return loadSphere(store, d.SpherePeak)
	}

	if d.CenterIndex == "" || d.LineWidth == "" || d.Frequencies == "" {
		return nil
	}
	files := volume.SpectralFiles{
		Center:    d.CenterIndex,
		Width:     d.LineWidth,
		Velocity:  d.Velocity,
		Frequency: d.Frequencies,
	}
	if err := store.LoadSpectralRaw(files); err != nil {
		glog.Warningf("Failed to load spectral fields, frequency mode unavailable: %v", err)
	}
	return nil
}

func loadSphere(store *volume.Store, peak float64) error {
	opts := volume.DefaultSphere()
	if peak > 0 {
		opts.Peak = peak
	}
	return store.LoadSynthetic(opts)
}
