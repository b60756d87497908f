// Package config loads the trip pipeline configuration. The schema uses
// pointer fields so partial JSON files are safe: fields omitted from the file
// fall back to the documented defaults via the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/cats.report/internal/fsutil"
	"github.com/banshee-data/cats.report/internal/trip"
)

// Defaults applied when a field is absent from the config file.
const (
	DefaultResampleInterval = 30 * time.Second
	DefaultTripExtension    = ".csv"
	DefaultWorkers          = 1
)

// PipelineConfig is the configuration surface consumed by the trip pipeline
// and its batch runner.
type PipelineConfig struct {
	// Cleaning params
	WaveFeatures *[]string `json:"wave_features,omitempty"`
	StrictDecode *bool     `json:"strict_decode,omitempty"`
	MaxRows      *int      `json:"max_rows,omitempty"`

	// Resampling params
	ResampleInterval   *string `json:"resample_interval,omitempty"` // duration string like "30s"
	InterpolateMissing *bool   `json:"interpolate_missing,omitempty"`

	// Batch params
	TripExtension *string `json:"trip_extension,omitempty"`
	Workers       *int    `json:"workers,omitempty"`
}

// EmptyPipelineConfig returns a PipelineConfig with all fields unset.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file read through
// fsys. The file must have a .json extension and stay under the max file
// size.
func LoadPipelineConfig(fsys fsutil.FileSystem, path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPipelineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations that would otherwise fail deep inside a
// batch run: unknown waveform statistics, unparseable intervals, nonsensical
// bounds.
func (c *PipelineConfig) Validate() error {
	if c.WaveFeatures != nil {
		for _, name := range *c.WaveFeatures {
			if !trip.IsWaveStat(name) {
				return fmt.Errorf("unknown waveform statistic %q", name)
			}
		}
	}

	if c.ResampleInterval != nil {
		d, err := time.ParseDuration(*c.ResampleInterval)
		if err != nil {
			return fmt.Errorf("invalid resample_interval %q: %w", *c.ResampleInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("resample_interval must be positive, got %q", *c.ResampleInterval)
		}
	}

	if c.MaxRows != nil && *c.MaxRows < 0 {
		return fmt.Errorf("max_rows must not be negative, got %d", *c.MaxRows)
	}

	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", *c.Workers)
	}

	return nil
}

// GetWaveFeatures returns the configured waveform statistics, defaulting to
// none (no derived waveform columns).
func (c *PipelineConfig) GetWaveFeatures() []string {
	if c.WaveFeatures == nil {
		return nil
	}
	return *c.WaveFeatures
}

// GetStrictDecode reports whether waveform decode failures abort a file.
func (c *PipelineConfig) GetStrictDecode() bool {
	return c.StrictDecode != nil && *c.StrictDecode
}

// GetMaxRows returns the per-file raw row bound, 0 meaning the cleaner's
// default.
func (c *PipelineConfig) GetMaxRows() int {
	if c.MaxRows == nil {
		return 0
	}
	return *c.MaxRows
}

// GetResampleInterval returns the resampling interval. Validate guarantees
// the stored string parses.
func (c *PipelineConfig) GetResampleInterval() time.Duration {
	if c.ResampleInterval == nil {
		return DefaultResampleInterval
	}
	d, err := time.ParseDuration(*c.ResampleInterval)
	if err != nil {
		return DefaultResampleInterval
	}
	return d
}

// GetInterpolateMissing reports whether resampling fills interior gaps.
func (c *PipelineConfig) GetInterpolateMissing() bool {
	return c.InterpolateMissing != nil && *c.InterpolateMissing
}

// GetTripExtension returns the trip file extension used for discovery.
func (c *PipelineConfig) GetTripExtension() string {
	if c.TripExtension == nil || *c.TripExtension == "" {
		return DefaultTripExtension
	}
	return *c.TripExtension
}

// GetWorkers returns the batch worker count, 0 meaning sequential.
func (c *PipelineConfig) GetWorkers() int {
	if c.Workers == nil {
		return DefaultWorkers
	}
	return *c.Workers
}

// CleanerConfig converts the pipeline configuration into the cleaner's
// per-trip configuration.
func (c *PipelineConfig) CleanerConfig() trip.CleanerConfig {
	return trip.CleanerConfig{
		WaveFeatures: c.GetWaveFeatures(),
		StrictDecode: c.GetStrictDecode(),
		MaxRows:      c.GetMaxRows(),
	}
}
