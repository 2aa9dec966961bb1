package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/golang/glog"

	"cuberender/pkg/config"
	"cuberender/pkg/pipeline"
	"cuberender/pkg/visualization"
	"cuberender/pkg/volume"
)

func main() {
	configPath := flag.String("config", "cuberender.yaml", "Path to the YAML configuration file")
	writeDefault := flag.Bool("write-config", false, "Write a default configuration to -config and exit")
	outputDir := flag.String("output", "", "Output directory (overrides output.dir)")
	frames := flag.Int("frames", 0, "Number of frames to render (overrides processing.frames)")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (overrides processing.numCores)")
	density := flag.String("density", "", "RAW density file (overrides data.densityRaw)")
	densityMeta := flag.String("density-meta", "", "JSON sidecar for the density file (overrides data.densityMeta)")
	mode := flag.String("mode", "", "Render mode: plain or freq (overrides render.mode)")
	channel := flag.Int("channel", -1, "Selected frequency channel (overrides spectral.channel)")
	flag.Parse()
	defer glog.Flush()

	if *writeDefault {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			glog.Exitf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		glog.Exitf("Failed to load config: %v", err)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *frames > 0 {
		cfg.Processing.Frames = *frames
	}
	if *numCores > 0 {
		cfg.Processing.NumCores = *numCores
	}
	if *density != "" {
		cfg.Data.DensityRaw = *density
		cfg.Data.DensityMeta = *densityMeta
	}
	if *mode != "" {
		cfg.Render.Mode = *mode
	}
	if *channel >= 0 {
		cfg.Spectral.Channel = *channel
	}

	fmt.Println("================================")
	fmt.Println("SPECTRAL CUBE VOLUME RENDERER")
	fmt.Println("Ray-marched emission with a synthetic-beam observation")
	fmt.Println("================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		glog.Exitf("Rendering failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	fmt.Println("Step 1: Loading volume data...")
	store := volume.NewStore()
	if err := pipeline.LoadData(store, cfg); err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	snap := store.Snapshot()
	fmt.Printf("Volume: %dx%dx%d, spectral fields: %v\n",
		snap.Density.Nx, snap.Density.Ny, snap.Density.Nz, snap.HasSpectral())

	if cfg.Output.SaveSlices {
		fmt.Println("Step 1b: Saving density slice previews...")
		viewer := visualization.NewViewer(snap.Density, cfg.Render.LogMin, cfg.Render.LogMax)
		dir := filepath.Join(cfg.Output.Dir, "slices")
		paths, err := viewer.SaveSliceSequence("z", dir, cfg.Output.SliceCount)
		if err != nil {
			glog.Warningf("Failed to save slices: %v", err)
		}
		fmt.Printf("Saved %d slices to %s\n", len(paths), dir)
	}

	fmt.Println("Step 2: Preparing render pipeline...")
	p, err := pipeline.New(store, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Step 3: Rendering %d frame(s) at %dx%d on %d cores...\n",
		cfg.Processing.Frames, cfg.Camera.Width, cfg.Camera.Height, cfg.Processing.NumCores)
	start := time.Now()
	for i := 0; i < cfg.Processing.Frames; i++ {
		if ctx.Err() != nil {
			fmt.Println("Interrupted, no further frames scheduled")
			break
		}
		frame, err := p.RenderFrame(ctx)
		if err != nil {
			return err
		}
		if err := saveFrame(cfg, frame); err != nil {
			return err
		}
	}
	total := time.Since(start)

	metrics := p.Metrics()
	fmt.Printf("\nRendering completed in %.2f seconds!\n", total.Seconds())
	fmt.Printf("Output written to: %s\n\n", cfg.Output.Dir)

	fmt.Printf("Frame Metrics:\n")
	fmt.Printf("==============\n")
	for _, m := range metrics {
		fmt.Printf("Frame %d [%v]: %.3fs, coverage %.1f%%, mean alpha %.3f",
			m.Index, m.Mode, m.Duration.Seconds(), m.Coverage*100, m.MeanAlpha)
		if cfg.Beam.Enabled {
			fmt.Printf(", threshold %.4g, %d pixels above", m.Threshold, m.AboveThreshold)
		}
		fmt.Println()
	}
	return nil
}

func saveFrame(cfg *config.Config, frame *pipeline.Frame) error {
	idx := frame.Metrics.Index
	dir := cfg.Output.Dir

	if cfg.Output.SaveRender {
		path := filepath.Join(dir, fmt.Sprintf("render_%03d.png", idx))
		if err := visualization.SavePNG(visualization.ToNRGBA(frame.Render), path); err != nil {
			return fmt.Errorf("failed to save render: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Printf("Saved %s\n", path)
		}
	}
	if cfg.Output.SaveObservation && frame.Observation != nil {
		path := filepath.Join(dir, fmt.Sprintf("observation_%03d.png", idx))
		if err := visualization.SavePNG(frame.Observation, path); err != nil {
			return fmt.Errorf("failed to save observation: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Printf("Saved %s\n", path)
		}
	}
	if cfg.Output.SaveHistogram && frame.Blurred != nil {
		path := filepath.Join(dir, fmt.Sprintf("histogram_%03d.png", idx))
		if err := visualization.SaveHistogram(frame.Blurred, frame.Metrics.Threshold, 64, path); err != nil {
			glog.Warningf("Skipping histogram for frame %d: %v", idx, err)
		}
	}
	return nil
}
