// bordermap renders walkable-area outlines of Ragnarok Online maps.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/terrainmap/internal/area"
	"github.com/Faultbox/terrainmap/internal/assets"
	"github.com/Faultbox/terrainmap/internal/bordermap"
	"github.com/Faultbox/terrainmap/internal/config"
	"github.com/Faultbox/terrainmap/internal/export"
	"github.com/Faultbox/terrainmap/internal/logger"
	"github.com/Faultbox/terrainmap/internal/source"
	"github.com/Faultbox/terrainmap/pkg/encoding"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	logger.Sync()
	if errors.Is(err, errUsage) {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `bordermap - walkable-area outline renderer

Usage:
  bordermap <command> [options]

Commands:
  render [flags] <map>...     Render border rasters of maps
  info [flags] <map>          Show map cell statistics
  list [flags] [pattern]      List maps in the configured archives

Flags (all commands):
  -config <path>   Config file (default ./config.yaml, then user config dir)
  -debug           Debug logging, also write the unscaled debug raster
  -max-edge <px>   Longest raster edge
  -workers <n>     Row workers
  -out <dir>       Output directory
  -format <fmt>    png or bmp
  -data-dir <dir>  Directory with loose map files

Examples:
  bordermap render prontera izlude
  bordermap render -debug -format bmp pay_dun00
  bordermap list "*dun*"`)
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "render":
		return cmdRender(ctx, args, stdout)
	case "info":
		return cmdInfo(args, stdout)
	case "list", "ls":
		return cmdList(args, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		return errUsage
	}
}

// app holds what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	assets *assets.Manager
	log    *zap.Logger
}

// setup parses the command flags, loads config, initializes logging and
// mounts the data sources. Extra flags may be added with extra before
// parsing.
func setup(name string, args []string, extra func(*flag.FlagSet)) (*app, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	flags := config.BindFlags(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.InitFromConfig(cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}

	a := &app{
		cfg:    cfg,
		assets: assets.NewManager(logger.Named("assets")),
		log:    logger.Named(name),
	}
	for _, path := range cfg.Data.GRFPaths {
		if _, err := os.Stat(path); err != nil {
			a.log.Warn("archive unavailable", zap.String("path", path), zap.Error(err))
			continue
		}
		if err := a.assets.AddArchive(path); err != nil {
			a.assets.Close()
			return nil, nil, err
		}
	}
	if cfg.Data.DataDir != "" {
		a.assets.SetDataDir(cfg.Data.DataDir)
	}
	return a, fs, nil
}

func cmdRender(ctx context.Context, args []string, stdout io.Writer) error {
	a, fs, err := setup("render", args, nil)
	if err != nil {
		return err
	}
	defer a.assets.Close()

	if fs.NArg() < 1 {
		return fmt.Errorf("%w: render needs at least one map", errUsage)
	}

	format, err := export.ParseFormat(a.cfg.Output.Format)
	if err != nil {
		return err
	}
	writer := export.NewWriter(a.cfg.Output.Dir, format)

	composer := bordermap.NewComposer(bordermap.Options{
		MaxEdge: a.cfg.Raster.MaxEdge,
		Workers: a.cfg.Raster.Workers,
		Logger:  logger.Named("bordermap"),
	})
	tracker := area.NewTracker(composer, logger.Named("area"))
	loader := source.NewLoader(a.assets, a.cfg.Terrain.WorldToGrid, logger.Named("source"))

	variants := []bordermap.Variant{bordermap.VariantProduction}
	if a.cfg.Raster.Debug {
		variants = append(variants, bordermap.VariantDebug)
	}

	failed := 0
	for _, name := range fs.Args() {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, _, err := loader.Load(name)
		if err != nil {
			a.log.Error("loading map", zap.String("map", name), zap.Error(err))
			failed++
			continue
		}
		tracker.Refresh(n)

		for _, v := range variants {
			r, err := tracker.Compose(ctx, v)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.log.Error("composing border map",
					zap.Stringer("area", n.Identity), zap.Stringer("variant", v), zap.Error(err))
				failed++
				continue
			}

			path, err := writer.Save(r, n.Identity.ID, v)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s %dx%d -> %s\n", n.Identity.ID, r.Width, r.Height, path)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d renders failed", failed)
	}
	return nil
}

func cmdInfo(args []string, stdout io.Writer) error {
	a, fs, err := setup("info", args, nil)
	if err != nil {
		return err
	}
	defer a.assets.Close()

	if fs.NArg() < 1 {
		return fmt.Errorf("%w: info needs a map", errUsage)
	}

	loader := source.NewLoader(a.assets, a.cfg.Terrain.WorldToGrid, logger.Named("source"))
	n, gat, err := loader.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	lo, hi := gat.GetAltitudeRange()
	fmt.Fprintf(stdout, "Map:      %s\n", n.Identity)
	fmt.Fprintf(stdout, "Version:  %s\n", gat.Version)
	fmt.Fprintf(stdout, "Size:     %dx%d\n", gat.Width, gat.Height)
	fmt.Fprintf(stdout, "Altitude: %.2f .. %.2f\n", lo, hi)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Cells by type:")

	counts := gat.CountByType()
	total := len(gat.Cells)
	for _, t := range slices.Sorted(maps.Keys(counts)) {
		c := counts[t]
		fmt.Fprintf(stdout, "  %-16s %8d  %5.1f%%\n", t, c, 100*float64(c)/float64(total))
	}
	return nil
}

func cmdList(args []string, stdout io.Writer) error {
	var limit int
	a, fs, err := setup("list", args, func(fs *flag.FlagSet) {
		fs.IntVar(&limit, "n", 0, "Limit output to N maps (0 = all)")
	})
	if err != nil {
		return err
	}
	defer a.assets.Close()

	pattern := ""
	if fs.NArg() > 0 {
		pattern = strings.ToLower(fs.Arg(0))
	}

	count := 0
	for _, p := range a.assets.List(".gat") {
		name := encoding.MapName(p)
		if pattern != "" {
			matched, _ := filepath.Match(pattern, name)
			if !matched && !strings.Contains(p, pattern) {
				continue
			}
		}
		fmt.Fprintf(stdout, "%-24s %s\n", name, p)
		count++
		if limit > 0 && count >= limit {
			break
		}
	}

	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d maps matched)\n", count)
	}
	return nil
}
