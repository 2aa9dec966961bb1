// Package pipeline renders frames from a volume store. Each frame reads one
// staged configuration snapshot and one volume snapshot; neither can change
// while the frame is in flight.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"cuberender/pkg/beam"
	"cuberender/pkg/config"
	"cuberender/pkg/raymarch"
	"cuberender/pkg/volume"
)

// ErrNoVolume is returned when neither loaded data nor the fallback sphere
// is available.
var ErrNoVolume = errors.New("pipeline: no volume to render")

// FrameMetrics describes one rendered frame.
type FrameMetrics struct {
	Index    int
	Duration time.Duration

	// Mode is the render mode actually used, which falls back to plain
	// when no spectral data is loaded
	Mode raymarch.RenderMode

	// Coverage is the fraction of pixels with non-zero alpha
	Coverage  float64
	MeanAlpha float64

	// Threshold and AboveThreshold come from the beam pass and are zero
	// when it is disabled
	Threshold      float64
	AboveThreshold int
}

// Frame is the output of one RenderFrame call.
type Frame struct {
	Render *raymarch.Image

	// Observation is the false-color beam image, nil when disabled
	Observation *image.RGBA

	// Blurred is the convolved intensity the observation was built from
	Blurred []float64

	Metrics FrameMetrics
}

// Pipeline renders frames from a Store.
type Pipeline struct {
	store  *volume.Store
	sphere volume.SphereOptions

	// staged is swapped by Stage and read once at the start of each frame
	staged atomic.Pointer[config.Snapshot]

	// frameMu serializes frames; scale and metrics are only touched under it
	frameMu sync.Mutex
	scale   r3.Vec
	metrics []FrameMetrics
}

// New creates a pipeline over store with cfg as the first staged snapshot.
func New(store *volume.Store, cfg *config.Config) (*Pipeline, error) {
	p := &Pipeline{
		store: store,
		scale: r3.Vec{X: 1, Y: 1, Z: 1},
	}
	p.sphere = volume.DefaultSphere()
	if cfg.Data.SpherePeak > 0 {
		p.sphere.Peak = cfg.Data.SpherePeak
	}
	if err := p.Stage(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// Stage validates cfg and makes it the configuration of the next frame.
// A frame already rendering keeps the snapshot it started with. An invalid
// cfg leaves the staged snapshot unchanged.
func (p *Pipeline) Stage(cfg *config.Config) error {
	snap, err := cfg.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to stage config: %w", err)
	}
	p.staged.Store(snap)
	return nil
}

// Scale returns the render-box scale applied to the most recent frame.
func (p *Pipeline) Scale() r3.Vec {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()
	return p.scale
}

// RenderFrame renders one frame and, if enabled, its beam observation.
func (p *Pipeline) RenderFrame(ctx context.Context) (*Frame, error) {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()

	start := time.Now()
	settings := p.staged.Load()

	if p.store.Snapshot() == nil {
		glog.Warningf("No volume loaded, using synthetic sphere")
		if err := p.store.LoadSynthetic(p.sphere); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoVolume, err)
		}
	}
	// bounds that arrived since the last frame take effect now, never mid-frame
	snap, scale, changed := p.store.Frame()
	if snap == nil {
		return nil, ErrNoVolume
	}
	if changed {
		glog.Infof("Applying render box scale %+v", scale)
		p.scale = scale
	}

	params := settings.Render
	if params.Mode == raymarch.Frequency && !snap.HasSpectral() {
		glog.Warningf("Frequency mode requested without spectral data, rendering plain")
		params.Mode = raymarch.Plain
	}

	comp := raymarch.NewCompositor(snap, params, raymarch.StepSize(params.StepScale, snap.Density.Nx))
	comp.Scale = p.scale

	img, err := comp.Render(ctx, settings.Camera, settings.Width, settings.Height, settings.Cores)
	if err != nil {
		return nil, fmt.Errorf("failed to render frame %d: %w", len(p.metrics), err)
	}

	frame := &Frame{Render: img}
	m := &frame.Metrics
	m.Index = len(p.metrics)
	m.Mode = params.Mode
	m.Coverage, m.MeanAlpha = alphaStats(img)

	if settings.BeamEnabled {
		frame.Blurred = beam.Blur(img, settings.Beam)
		obs, st := beam.Colorize(frame.Blurred, img.Width, img.Height, settings.Beam.Percentile)
		frame.Observation = obs
		m.Threshold = st.Threshold
		m.AboveThreshold = st.Above
	}

	m.Duration = time.Since(start)
	p.metrics = append(p.metrics, *m)
	if glog.V(1) {
		glog.Infof("Frame %d: %v, mode %v, coverage %.3f, mean alpha %.3f",
			m.Index, m.Duration, m.Mode, m.Coverage, m.MeanAlpha)
	}
	return frame, nil
}

// Metrics returns the metrics of every frame rendered so far.
func (p *Pipeline) Metrics() []FrameMetrics {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()
	out := make([]FrameMetrics, len(p.metrics))
	copy(out, p.metrics)
	return out
}

func alphaStats(img *raymarch.Image) (coverage, mean float64) {
	n := img.Width * img.Height
	if n == 0 {
		return 0, 0
	}
	alphas := make([]float64, n)
	covered := 0
	for i := range alphas {
		a := img.Pix[4*i+3]
		alphas[i] = a
		if a > 0 {
			covered++
		}
	}
	return float64(covered) / float64(n), stat.Mean(alphas, nil)
}
