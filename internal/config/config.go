// Package config handles bordermap configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all tool settings.
type Config struct {
	Raster  RasterConfig  `yaml:"raster"`
	Terrain TerrainConfig `yaml:"terrain"`
	Data    DataConfig    `yaml:"data"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// RasterConfig holds border raster composition settings.
type RasterConfig struct {
	MaxEdge int  `yaml:"max_edge"` // Longest allowed raster edge in pixels
	Workers int  `yaml:"workers"`  // Row workers, 0 = GOMAXPROCS
	Debug   bool `yaml:"debug"`    // Also compose the unscaled debug raster
}

// TerrainConfig holds height projection settings.
type TerrainConfig struct {
	WorldToGrid float32 `yaml:"world_to_grid"` // World units per ground cell
}

// DataConfig holds game data file paths.
type DataConfig struct {
	GRFPaths []string `yaml:"grf_paths"` // Paths to GRF archives
	DataDir  string   `yaml:"data_dir"`  // Loose files, searched after archives
}

// OutputConfig holds raster export settings.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png or bmp
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Raster: RasterConfig{
			MaxEdge: 8192,
			Workers: 0,
			Debug:   false,
		},
		Terrain: TerrainConfig{
			WorldToGrid: 5,
		},
		Data: DataConfig{
			GRFPaths: []string{"data.grf"},
			DataDir:  "data",
		},
		Output: OutputConfig{
			Dir:    "out",
			Format: "png",
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Validate checks values that would otherwise fail deep in the pipeline.
func (c *Config) Validate() error {
	if c.Raster.MaxEdge <= 0 {
		return fmt.Errorf("%w: raster.max_edge must be positive, got %d", ErrInvalidConfig, c.Raster.MaxEdge)
	}
	if c.Raster.Workers < 0 {
		return fmt.Errorf("%w: raster.workers must not be negative, got %d", ErrInvalidConfig, c.Raster.Workers)
	}
	if c.Terrain.WorldToGrid <= 0 {
		return fmt.Errorf("%w: terrain.world_to_grid must be positive, got %v", ErrInvalidConfig, c.Terrain.WorldToGrid)
	}
	switch c.Output.Format {
	case "png", "bmp":
	default:
		return fmt.Errorf("%w: output.format must be png or bmp, got %q", ErrInvalidConfig, c.Output.Format)
	}
	return nil
}
