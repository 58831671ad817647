package config

import "flag"

// Flags holds command-line overrides. Zero values leave the config alone.
type Flags struct {
	Config  string
	Debug   bool
	MaxEdge int
	Workers int
	Out     string
	Format  string
	DataDir string
}

// BindFlags registers the override flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging and the debug raster")
	fs.IntVar(&f.MaxEdge, "max-edge", 0, "Longest raster edge in pixels")
	fs.IntVar(&f.Workers, "workers", 0, "Row workers (0 = config value)")
	fs.StringVar(&f.Out, "out", "", "Output directory")
	fs.StringVar(&f.Format, "format", "", "Output format (png, bmp)")
	fs.StringVar(&f.DataDir, "data-dir", "", "Directory with loose map files")
	return f
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
		cfg.Raster.Debug = true
	}
	if f.MaxEdge > 0 {
		cfg.Raster.MaxEdge = f.MaxEdge
	}
	if f.Workers > 0 {
		cfg.Raster.Workers = f.Workers
	}
	if f.Out != "" {
		cfg.Output.Dir = f.Out
	}
	if f.Format != "" {
		cfg.Output.Format = f.Format
	}
	if f.DataDir != "" {
		cfg.Data.DataDir = f.DataDir
	}
}
