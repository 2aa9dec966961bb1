// Package config provides configuration loading and management for cuberender.
// It handles loading configuration from YAML files, provides default values
// and converts a configuration into the immutable settings of one frame.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"cuberender/pkg/beam"
	"cuberender/pkg/pose"
	"cuberender/pkg/raymarch"
	"cuberender/pkg/spectral"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Render parameters for the ray-march compositor
	Render struct {
		// Mode is "plain" or "freq"
		Mode string `yaml:"mode"`

		// DensityGain scales absorption per unit length
		DensityGain float64 `yaml:"densityGain"`

		// LogMin and LogMax bound the log10 density window
		LogMin float64 `yaml:"logMin"`
		LogMax float64 `yaml:"logMax"`

		// StepScale is the ray step as a fraction of one voxel
		StepScale float64 `yaml:"stepScale"`

		// Background is the brightness off-channel voxels fade toward
		Background float64 `yaml:"background"`

		// DebugWeight renders the frequency weight as grayscale
		DebugWeight bool `yaml:"debugWeight"`
	} `yaml:"render"`

	// Spectral weighting parameters, used in freq mode
	Spectral struct {
		Channel      int     `yaml:"channel"`
		Weighting    string  `yaml:"weighting"`
		Broadening   float64 `yaml:"broadening"`
		Gamma        float64 `yaml:"gamma"`
		MinLineWidth float64 `yaml:"minLineWidth"`
	} `yaml:"spectral"`

	// Synthetic beam post-processing
	Beam struct {
		Enabled bool `yaml:"enabled"`

		// BlurSigma is the PSF width in pixels; below 0.1 there is no blur
		BlurSigma float64 `yaml:"blurSigma"`

		// Percentile of pixels forced to black
		Percentile float64 `yaml:"percentile"`

		// Method is "direct" or "fft"
		Method string `yaml:"method"`
	} `yaml:"beam"`

	// Camera used when the pose is disabled
	Camera struct {
		Position [3]float64 `yaml:"position"`
		Target   [3]float64 `yaml:"target"`
		FOV      float64    `yaml:"fov"`
		Width    int        `yaml:"width"`
		Height   int        `yaml:"height"`
	} `yaml:"camera"`

	// Observation pose, replaces the camera position when enabled
	Pose struct {
		Enabled     bool    `yaml:"enabled"`
		Inclination float64 `yaml:"inclination"`
		Phi         float64 `yaml:"phi"`
		PosAng      float64 `yaml:"posAng"`
		Distance    float64 `yaml:"distance"`
	} `yaml:"pose"`

	// Output parameters
	Output struct {
		Dir             string `yaml:"dir"`
		SaveRender      bool   `yaml:"saveRender"`
		SaveObservation bool   `yaml:"saveObservation"`

		// SaveSlices writes z-slice previews of the density volume
		SaveSlices bool `yaml:"saveSlices"`
		SliceCount int  `yaml:"sliceCount"`

		// SaveHistogram plots blurred intensities with the threshold marked
		SaveHistogram bool `yaml:"saveHistogram"`

		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Input data; an empty DensityRaw selects the synthetic sphere
	Data struct {
		DensityMeta string `yaml:"densityMeta"`
		DensityRaw  string `yaml:"densityRaw"`
		CenterIndex string `yaml:"centerIndex"`
		LineWidth   string `yaml:"lineWidth"`
		Velocity    string `yaml:"velocity"`
		Frequencies string `yaml:"frequencies"`

		// SpherePeak is the density inside the synthetic sphere
		SpherePeak float64 `yaml:"spherePeak"`
	} `yaml:"data"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for parallel rendering
		NumCores int `yaml:"numCores"`

		// Frames is the number of frames the CLI renders
		Frames int `yaml:"frames"`
	} `yaml:"processing"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Render.Mode = "plain"
	cfg.Render.DensityGain = 1.0
	cfg.Render.LogMin = 3
	cfg.Render.LogMax = 10
	cfg.Render.StepScale = 0.9
	cfg.Render.Background = 0.15

	cfg.Spectral.Weighting = "gaussian"
	cfg.Spectral.Broadening = 1.0
	cfg.Spectral.Gamma = 1.0
	cfg.Spectral.MinLineWidth = 0.3

	cfg.Beam.Enabled = true
	cfg.Beam.BlurSigma = 2.0
	cfg.Beam.Percentile = beam.DefaultPercentile
	cfg.Beam.Method = "direct"

	cfg.Camera.Position = [3]float64{1.5, 1.25, 1.8}
	cfg.Camera.FOV = 45
	cfg.Camera.Width = 512
	cfg.Camera.Height = 512

	cfg.Pose.Distance = 2.5

	cfg.Output.Dir = "output"
	cfg.Output.SaveRender = true
	cfg.Output.SaveObservation = true
	cfg.Output.SliceCount = 8
	cfg.Output.Verbose = true

	cfg.Data.SpherePeak = 1e10

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.Frames = 1

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

// Validate rejects values no frame can be rendered with. Degenerate but
// renderable values, such as an empty log window, are left alone.
func (c *Config) Validate() error {
	var errs []error
	if _, err := raymarch.ParseRenderMode(c.Render.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := spectral.ParseMode(c.Spectral.Weighting); err != nil {
		errs = append(errs, err)
	}
	if _, err := beam.ParseMethod(c.Beam.Method); err != nil {
		errs = append(errs, err)
	}
	if c.Render.DensityGain < 0 {
		errs = append(errs, fmt.Errorf("densityGain must not be negative, got %g", c.Render.DensityGain))
	}
	if c.Render.StepScale <= 0 {
		errs = append(errs, fmt.Errorf("stepScale must be positive, got %g", c.Render.StepScale))
	}
	if c.Render.Background < 0 || c.Render.Background > 1 {
		errs = append(errs, fmt.Errorf("background must be in [0,1], got %g", c.Render.Background))
	}
	if c.Spectral.Channel < 0 {
		errs = append(errs, fmt.Errorf("channel must not be negative, got %d", c.Spectral.Channel))
	}
	if c.Beam.Percentile < 0 || c.Beam.Percentile > 1 {
		errs = append(errs, fmt.Errorf("percentile must be in [0,1], got %g", c.Beam.Percentile))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("image size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov must be in (0,180), got %g", c.Camera.FOV))
	}
	if !c.Pose.Enabled && c.Camera.Position == c.Camera.Target {
		errs = append(errs, errors.New("camera position equals its target"))
	}
	if c.Pose.Enabled && c.Pose.Distance <= 0 {
		errs = append(errs, fmt.Errorf("pose distance must be positive, got %g", c.Pose.Distance))
	}
	return errors.Join(errs...)
}

// Snapshot is the immutable per-frame view of a Config.
type Snapshot struct {
	Render raymarch.Params
	Beam   beam.Params

	BeamEnabled   bool
	Camera        raymarch.Camera
	Width, Height int
	Cores         int
}

// Snapshot validates the configuration and converts it to frame settings.
func (c *Config) Snapshot() (*Snapshot, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mode, _ := raymarch.ParseRenderMode(c.Render.Mode)
	weighting, _ := spectral.ParseMode(c.Spectral.Weighting)
	method, _ := beam.ParseMethod(c.Beam.Method)

	s := &Snapshot{
		Render: raymarch.Params{
			Mode:        mode,
			DensityGain: c.Render.DensityGain,
			LogMin:      c.Render.LogMin,
			LogMax:      c.Render.LogMax,
			StepScale:   c.Render.StepScale,
			Background:  c.Render.Background,
			Weight: spectral.WeightParams{
				Mode:       weighting,
				Channel:    c.Spectral.Channel,
				Broadening: c.Spectral.Broadening,
				MinWidth:   c.Spectral.MinLineWidth,
				Gamma:      c.Spectral.Gamma,
			},
			DebugWeight: c.Render.DebugWeight,
		},
		Beam: beam.Params{
			Sigma:      c.Beam.BlurSigma,
			Percentile: c.Beam.Percentile,
			Method:     method,
		},
		BeamEnabled: c.Beam.Enabled,
		Width:       c.Camera.Width,
		Height:      c.Camera.Height,
		Cores:       max(c.Processing.NumCores, 1),
	}

	target := vec(c.Camera.Target)
	if c.Pose.Enabled {
		q := pose.FromAngles(c.Pose.Inclination, c.Pose.Phi, c.Pose.PosAng)
		s.Camera = raymarch.NewOrientedCamera(q, target, c.Pose.Distance, c.Camera.FOV)
	} else {
		s.Camera = raymarch.NewLookAtCamera(vec(c.Camera.Position), target, c.Camera.FOV)
	}
	return s, nil
}

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}
