package volume

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cuberender/internal/models"
)

// Metadata is the sidecar describing a RAW density file. JSON sidecars
// parse as YAML, so both formats are accepted.
type Metadata struct {
	// Shape is [Nz, Ny, Nx]
	Shape  []int `yaml:"shape"`
	Bounds struct {
		X []float64 `yaml:"x"`
		Y []float64 `yaml:"y"`
		Z []float64 `yaml:"z"`
	} `yaml:"bounds"`
}

// Dims returns the grid dimensions in x, y, z order.
func (m *Metadata) Dims() (nx, ny, nz int, err error) {
	if len(m.Shape) != 3 {
		return 0, 0, 0, fmt.Errorf("shape must have 3 entries, got %d", len(m.Shape))
	}
	return m.Shape[2], m.Shape[1], m.Shape[0], nil
}

// PhysicalBounds converts the sidecar bounds, defaulting to the unit box
// for any axis that is missing.
func (m *Metadata) PhysicalBounds() models.Bounds {
	b := models.UnitBounds
	if len(m.Bounds.X) == 2 {
		b.XMin, b.XMax = m.Bounds.X[0], m.Bounds.X[1]
	}
	if len(m.Bounds.Y) == 2 {
		b.YMin, b.YMax = m.Bounds.Y[0], m.Bounds.Y[1]
	}
	if len(m.Bounds.Z) == 2 {
		b.ZMin, b.ZMax = m.Bounds.Z[0], m.Bounds.Z[1]
	}
	return b
}

// ReadMetadata parses a density sidecar file.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading metadata: %w", err)
	}
	var m Metadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error parsing metadata: %w", err)
	}
	return &m, nil
}

// ReadFloat32 reads a little-endian float32 RAW file.
func ReadFloat32(path string) ([]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("%s: size %d is not a multiple of 4: %w", path, len(raw), ErrShapeMismatch)
	}
	out := make([]float32, len(raw)/4)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return out, nil
}

// LoadRaw reads a density volume described by a sidecar and publishes it.
func (s *Store) LoadRaw(metaPath, rawPath string) error {
	meta, err := ReadMetadata(metaPath)
	if err != nil {
		return err
	}
	nx, ny, nz, err := meta.Dims()
	if err != nil {
		return fmt.Errorf("%s: %w", metaPath, err)
	}
	data, err := ReadFloat32(rawPath)
	if err != nil {
		return err
	}
	return s.LoadDensity(data, nx, ny, nz, meta.PhysicalBounds())
}

// SpectralFiles names the RAW files of a spectral dataset. Velocity may be
// empty.
type SpectralFiles struct {
	Center    string `yaml:"center"`
	Width     string `yaml:"width"`
	Velocity  string `yaml:"velocity"`
	Frequency string `yaml:"frequency"`
}

// ReadFrequencyAxis parses a list of channel frequencies in Hz.
func ReadFrequencyAxis(path string) (models.FrequencyAxis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.FrequencyAxis{}, fmt.Errorf("error reading frequency axis: %w", err)
	}
	var freqs []float64
	if err := yaml.Unmarshal(data, &freqs); err != nil {
		return models.FrequencyAxis{}, fmt.Errorf("error parsing frequency axis: %w", err)
	}
	return models.FrequencyAxis{Frequencies: freqs}, nil
}

// LoadSpectralRaw reads the spectral RAW files and attaches them to the
// current density.
func (s *Store) LoadSpectralRaw(files SpectralFiles) error {
	axis, err := ReadFrequencyAxis(files.Frequency)
	if err != nil {
		return err
	}
	center, err := ReadFloat32(files.Center)
	if err != nil {
		return err
	}
	width, err := ReadFloat32(files.Width)
	if err != nil {
		return err
	}
	var velocity []float32
	if files.Velocity != "" {
		if velocity, err = ReadFloat32(files.Velocity); err != nil {
			return err
		}
	}
	return s.LoadSpectral(center, width, velocity, axis)
}
