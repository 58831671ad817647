package bordermap

import (
	"context"
	"image"
	"image/color"
	"runtime"
	"time"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/terrainmap/pkg/walkgrid"
)

// Variant selects marker color and size handling for a composition.
type Variant uint8

const (
	// VariantProduction marks borders in white and applies the size cap.
	VariantProduction Variant = iota
	// VariantDebug marks borders in red at full grid resolution.
	VariantDebug
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantProduction:
		return "production"
	case VariantDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// Marker returns the pixel color written for border cells.
func (v Variant) Marker() color.RGBA {
	if v == VariantDebug {
		return DebugMarkerColor
	}
	return MarkerColor
}

// Options configures a Composer.
type Options struct {
	// MaxEdge caps the longer edge of production rasters.
	MaxEdge int
	// Workers limits concurrent row scans. Zero uses GOMAXPROCS.
	Workers int
	// Filter resamples rasters that exceed MaxEdge.
	Filter xdraw.Interpolator
	// Logger receives composition diagnostics.
	Logger *zap.Logger
}

// DefaultOptions returns the options used in production.
func DefaultOptions() Options {
	return Options{
		MaxEdge: DefaultMaxEdge,
		Filter:  xdraw.CatmullRom,
	}
}

// Composer turns walkability and height grids into border rasters.
// A Composer is safe for concurrent use.
type Composer struct {
	maxEdge int
	workers int
	filter  xdraw.Interpolator
	log     *zap.Logger
}

// NewComposer creates a composer, filling unset options with defaults.
func NewComposer(opts Options) *Composer {
	c := &Composer{
		maxEdge: opts.MaxEdge,
		workers: opts.Workers,
		filter:  opts.Filter,
		log:     opts.Logger,
	}
	if c.maxEdge <= 0 {
		c.maxEdge = DefaultMaxEdge
	}
	if c.workers <= 0 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	if c.filter == nil {
		c.filter = xdraw.CatmullRom
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// MaxEdge returns the configured size cap.
func (c *Composer) MaxEdge() int {
	return c.maxEdge
}

// Compose builds the production raster for the given area data.
func (c *Composer) Compose(ctx context.Context, g *walkgrid.Grid, h walkgrid.Heights, p Params) (*Raster, error) {
	return c.ComposeVariant(ctx, g, h, p, VariantProduction)
}

// ComposeDebug builds the full-resolution debug raster.
func (c *Composer) ComposeDebug(ctx context.Context, g *walkgrid.Grid, h walkgrid.Heights, p Params) (*Raster, error) {
	return c.ComposeVariant(ctx, g, h, p, VariantDebug)
}

// ComposeVariant builds a raster of width g.Width() and height g.Rows(),
// marking every border cell at its height-projected position. Cells that
// project outside the raster are dropped.
func (c *Composer) ComposeVariant(ctx context.Context, g *walkgrid.Grid, h walkgrid.Heights, p Params, v Variant) (*Raster, error) {
	if g == nil || len(h) == 0 {
		c.log.Warn("cannot compose border map: grid or height data missing",
			zap.Bool("grid", g != nil),
			zap.Int("height_rows", len(h)))
		return nil, ErrMissingData
	}
	if err := p.Validate(); err != nil {
		c.log.Warn("cannot compose border map", zap.Error(err))
		return nil, err
	}

	start := time.Now()
	width, height := g.Width(), g.Rows()
	cov := newCoverage(width * height)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(c.workers)

	rows := min(height, len(h))
	for y := range rows {
		if gctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scanRow(g, h[y], y, p.HeightMultiplier, width, height, cov)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		c.log.Debug("border map composition cancelled", zap.Error(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	marker := v.Marker()
	cov.each(func(i int) {
		off := i * 4
		img.Pix[off] = marker.R
		img.Pix[off+1] = marker.G
		img.Pix[off+2] = marker.B
		img.Pix[off+3] = marker.A
	})

	raster := &Raster{
		Image:        img,
		Width:        width,
		Height:       height,
		SourceWidth:  width,
		SourceHeight: height,
	}

	if v == VariantProduction {
		if fw, fh := FitWithin(width, height, c.maxEdge); fw != width || fh != height {
			raster.Image = downscale(img, fw, fh, c.filter)
			raster.Width, raster.Height = fw, fh
			c.log.Debug("border map downscaled",
				zap.Int("from_width", width), zap.Int("from_height", height),
				zap.Int("width", fw), zap.Int("height", fh))
		}
	}

	c.log.Debug("border map composed",
		zap.Stringer("variant", v),
		zap.Int("width", raster.Width),
		zap.Int("height", raster.Height),
		zap.Int("marked", cov.count()),
		zap.Duration("took", time.Since(start)))

	return raster, nil
}

// scanRow marks the border cells of one grid row. Edge columns are skipped
// because their horizontal neighbor would fall into the adjacent row.
func scanRow(g *walkgrid.Grid, heights []float32, y int, multiplier float32, width, height int, cov *coverage) {
	cols := min(len(heights), width)
	for x := 1; x < cols-1; x++ {
		if !IsBorder(g, x, y) {
			continue
		}
		px, py, ok := ProjectChecked(x, y, heights[x], multiplier)
		if !ok || !inBounds(px, py, width, height) {
			continue
		}
		cov.mark(py*width + px)
	}
}
