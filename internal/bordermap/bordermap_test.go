package bordermap

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	xdraw "golang.org/x/image/draw"

	"github.com/Faultbox/terrainmap/pkg/walkgrid"
)

// gridFromRows builds a grid from rows of hex digits, one digit per cell.
func gridFromRows(t *testing.T, rows ...string) *walkgrid.Grid {
	t.Helper()
	cells := make([][]uint8, len(rows))
	for y, row := range rows {
		cells[y] = make([]uint8, len(row))
		for x, r := range row {
			switch {
			case r >= '0' && r <= '9':
				cells[y][x] = uint8(r - '0')
			case r >= 'a' && r <= 'f':
				cells[y][x] = uint8(r-'a') + 10
			default:
				t.Fatalf("invalid cell %q at (%d,%d)", r, x, y)
			}
		}
	}
	g, err := walkgrid.Pack(cells)
	require.NoError(t, err)
	return g
}

// markedPixels lists the opaque pixels of img in row-major order.
func markedPixels(img *image.RGBA) []image.Point {
	var pts []image.Point
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).A != 0 {
				pts = append(pts, image.Pt(x, y))
			}
		}
	}
	return pts
}

func flat() Params {
	return Params{HeightMultiplier: 1}
}

func TestIsBorder_AllUnwalkable(t *testing.T) {
	g := gridFromRows(t,
		"0000",
		"0000",
		"0000",
	)
	for y := range g.Rows() {
		for x := 1; x < g.Width()-1; x++ {
			assert.False(t, IsBorder(g, x, y), "cell (%d,%d)", x, y)
		}
	}
}

func TestIsBorder_Rule(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		col  int
		row  int
		want bool
	}{
		{"unwalkable next to walkable", []string{"0000", "0020", "0000"}, 1, 1, true},
		{"unwalkable below walkable", []string{"0200", "0000", "0000"}, 1, 1, true},
		{"unwalkable above walkable", []string{"0000", "0000", "0300"}, 1, 1, true},
		{"unwalkable right of walkable", []string{"0000", "f000", "0000"}, 1, 1, true},
		{"diagonal does not count", []string{"2020", "0000", "2020"}, 1, 1, false},
		{"walkable cell is not a border", []string{"0000", "0200", "0000"}, 1, 1, false},
		{"value one with walkable neighbor", []string{"0000", "0120", "0000"}, 1, 1, true},
		{"value one alone", []string{"0000", "0100", "0000"}, 1, 1, false},
		{"value one next to value one", []string{"0000", "0110", "0000"}, 1, 1, true},
		{"value two next to value one", []string{"0000", "0210", "0000"}, 1, 1, false},
		{"bottom row reads below grid as unwalkable", []string{"0000", "0000", "0000"}, 1, 2, false},
		{"top row with walkable below", []string{"0000", "0200", "0000"}, 1, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := gridFromRows(t, tc.rows...)
			assert.Equal(t, tc.want, IsBorder(g, tc.col, tc.row))
		})
	}
}

func TestProject(t *testing.T) {
	tests := []struct {
		name       string
		height     float32
		multiplier float32
		wantX      int
		wantY      int
	}{
		{"zero height", 0, 1, 10, 20},
		{"integer offset", 3, 1, 7, 17},
		{"fraction truncates down", 1.9, 1, 9, 19},
		{"negative fraction truncates toward zero", -1.5, 1, 11, 21},
		{"below one cell", 21.7, 21.74, 10, 20},
		{"scaled", 43.5, 21.74, 8, 18},
		{"negative multiplier", 4, -2, 12, 22},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x, y := Project(10, 20, tc.height, tc.multiplier)
			assert.Equal(t, tc.wantX, x)
			assert.Equal(t, tc.wantY, y)
		})
	}
}

func TestProjectChecked_NonFinite(t *testing.T) {
	_, _, ok := ProjectChecked(1, 1, float32(math.NaN()), 1)
	assert.False(t, ok)

	_, _, ok = ProjectChecked(1, 1, 5, 0)
	assert.False(t, ok)

	_, _, ok = ProjectChecked(1, 1, 3e38, 1e-30)
	assert.False(t, ok)

	x, y, ok := ProjectChecked(1, 1, 0, 1)
	assert.True(t, ok)
	assert.Equal(t, 1, x)
	assert.Equal(t, 1, y)
}

func TestParams(t *testing.T) {
	p := ParamsFromWorldFactor(10.87)
	assert.InDelta(t, 21.74, p.HeightMultiplier, 1e-4)
	assert.NoError(t, p.Validate())

	for _, m := range []float32{0, float32(math.NaN()), float32(math.Inf(1))} {
		assert.ErrorIs(t, Params{HeightMultiplier: m}.Validate(), ErrInvalidProjection)
	}
}

func TestCompose_AllWalkable(t *testing.T) {
	g := gridFromRows(t,
		"2222",
		"2222",
		"2222",
		"2222",
	)
	c := NewComposer(DefaultOptions())

	r, err := c.Compose(context.Background(), g, walkgrid.Uniform(4, 4, 0), flat())
	require.NoError(t, err)

	assert.Equal(t, 4, r.Width)
	assert.Equal(t, 4, r.Height)
	assert.Zero(t, CountMarked(r.Image))
}

func TestCompose_WalkableBlockCorner(t *testing.T) {
	g := gridFromRows(t,
		"2220",
		"2220",
		"2220",
		"0000",
	)
	c := NewComposer(DefaultOptions())

	r, err := c.Compose(context.Background(), g, walkgrid.Uniform(4, 4, 0), flat())
	require.NoError(t, err)

	// Only interior columns 1 and 2 are scanned; the bottom ring is marked.
	assert.Equal(t, []image.Point{{1, 3}, {2, 3}}, markedPixels(r.Image))
}

func TestCompose_WalkableBlockRing(t *testing.T) {
	g := gridFromRows(t,
		"00000000",
		"00000000",
		"00222000",
		"00222000",
		"00222000",
		"00000000",
		"00000000",
	)
	c := NewComposer(DefaultOptions())

	r, err := c.Compose(context.Background(), g, walkgrid.Uniform(7, 8, 0), flat())
	require.NoError(t, err)

	want := []image.Point{
		{2, 1}, {3, 1}, {4, 1},
		{1, 2}, {5, 2},
		{1, 3}, {5, 3},
		{1, 4}, {5, 4},
		{2, 5}, {3, 5}, {4, 5},
	}
	assert.Equal(t, want, markedPixels(r.Image))

	for _, p := range want {
		assert.Equal(t, MarkerColor, r.Image.RGBAAt(p.X, p.Y))
	}
}

func TestCompose_HeightShift(t *testing.T) {
	g := gridFromRows(t,
		"000000",
		"000000",
		"002000",
		"000000",
	)
	h := walkgrid.Uniform(4, 6, 0)
	// Left neighbor of the walkable cell rises by one cell, right neighbor
	// by five cells which pushes it off the raster.
	h[2][1] = 1
	h[2][3] = 5

	c := NewComposer(DefaultOptions())
	r, err := c.Compose(context.Background(), g, h, flat())
	require.NoError(t, err)

	assert.Equal(t, []image.Point{{0, 1}, {2, 1}, {2, 3}}, markedPixels(r.Image))
}

func TestCompose_HeightRowsNarrowerThanGrid(t *testing.T) {
	g := gridFromRows(t,
		"000000",
		"002200",
		"000000",
	)
	// Only the first three columns have samples, so only column 1 is scanned.
	h := walkgrid.Heights{{0, 0, 0}, {0, 0, 0}}

	c := NewComposer(DefaultOptions())
	r, err := c.Compose(context.Background(), g, h, flat())
	require.NoError(t, err)

	assert.Equal(t, 6, r.Width)
	assert.Equal(t, 3, r.Height)
	assert.Equal(t, []image.Point{{1, 1}}, markedPixels(r.Image))
}

func TestCompose_DebugVariant(t *testing.T) {
	g := gridFromRows(t,
		"0000",
		"0200",
		"0000",
	)
	c := NewComposer(DefaultOptions())

	r, err := c.ComposeDebug(context.Background(), g, walkgrid.Uniform(3, 4, 0), flat())
	require.NoError(t, err)

	pts := markedPixels(r.Image)
	require.NotEmpty(t, pts)
	for _, p := range pts {
		assert.Equal(t, DebugMarkerColor, r.Image.RGBAAt(p.X, p.Y))
	}
}

func TestCompose_Errors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := NewComposer(Options{Logger: zap.New(core)})
	g := gridFromRows(t, "0000")
	ctx := context.Background()

	_, err := c.Compose(ctx, nil, walkgrid.Uniform(1, 4, 0), flat())
	assert.ErrorIs(t, err, ErrMissingData)

	_, err = c.Compose(ctx, g, nil, flat())
	assert.ErrorIs(t, err, ErrMissingData)

	_, err = c.Compose(ctx, g, walkgrid.Uniform(1, 4, 0), Params{})
	assert.ErrorIs(t, err, ErrInvalidProjection)

	assert.Equal(t, 3, logs.Len())
	assert.Equal(t, 2, logs.FilterMessageSnippet("missing").Len())
}

func TestCompose_Cancelled(t *testing.T) {
	g := gridFromRows(t, "0000", "0200", "0000")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewComposer(DefaultOptions())
	r, err := c.Compose(ctx, g, walkgrid.Uniform(3, 4, 0), flat())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, r)
}

func TestCompose_ParallelMatchesSerial(t *testing.T) {
	const width, rows = 64, 48
	cells := make([][]uint8, rows)
	h := walkgrid.Uniform(rows, width, 0)
	for y := range cells {
		cells[y] = make([]uint8, width)
		for x := range cells[y] {
			// Checkerboard of 3x3 blocks plus scattered ones.
			if (x/3+y/3)%2 == 0 {
				cells[y][x] = 2
			}
			if (x*7+y*3)%11 == 0 {
				cells[y][x] = 1
			}
			// Heights collapse neighboring rows onto the same pixels.
			h[y][x] = float32((x + y) % 4)
		}
	}
	g, err := walkgrid.Pack(cells)
	require.NoError(t, err)

	serial, err := NewComposer(Options{Workers: 1}).Compose(context.Background(), g, h, flat())
	require.NoError(t, err)
	parallel, err := NewComposer(Options{Workers: 8}).Compose(context.Background(), g, h, flat())
	require.NoError(t, err)

	assert.NotZero(t, CountMarked(serial.Image))
	assert.Equal(t, serial.Image.Pix, parallel.Image.Pix)
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{8192, 8192, 8192, 8192, 8192},
		{8192, 100, 8192, 8192, 100},
		{16384, 8192, 8192, 8192, 4096},
		{8192, 16384, 8192, 4096, 8192},
		{10000, 3333, 8192, 8192, 2730},
		{100, 30000, 8192, 27, 8192},
		{1, 40000, 8192, 1, 8192},
		{500, 300, 0, 500, 300},
	}

	for _, tc := range tests {
		w, h := FitWithin(tc.w, tc.h, tc.max)
		assert.Equal(t, tc.wantW, w, "width for %dx%d", tc.w, tc.h)
		assert.Equal(t, tc.wantH, h, "height for %dx%d", tc.w, tc.h)
	}
}

func TestCompose_Downscale(t *testing.T) {
	g := gridFromRows(t,
		"0000000000000000",
		"0000222222220000",
		"0000222222220000",
		"0000000000000000",
	)
	h := walkgrid.Uniform(4, 16, 0)
	c := NewComposer(Options{MaxEdge: 8, Filter: xdraw.NearestNeighbor})

	r, err := c.Compose(context.Background(), g, h, flat())
	require.NoError(t, err)

	assert.Equal(t, 8, r.Width)
	assert.Equal(t, 2, r.Height)
	assert.Equal(t, image.Rect(0, 0, 8, 2), r.Image.Bounds())
	assert.Equal(t, 16, r.SourceWidth)
	assert.Equal(t, 4, r.SourceHeight)
	assert.True(t, r.Resized())
	assert.InDelta(t, 0.5, r.Scale(), 1e-9)

	debug, err := c.ComposeDebug(context.Background(), g, h, flat())
	require.NoError(t, err)
	assert.Equal(t, 16, debug.Width)
	assert.Equal(t, 4, debug.Height)
	assert.False(t, debug.Resized())
}

func TestCompose_AtLimitUnchanged(t *testing.T) {
	g := gridFromRows(t,
		"00000000",
		"00220000",
		"00000000",
	)
	c := NewComposer(Options{MaxEdge: 8})

	r, err := c.Compose(context.Background(), g, walkgrid.Uniform(3, 8, 0), flat())
	require.NoError(t, err)

	assert.Equal(t, 8, r.Width)
	assert.Equal(t, 3, r.Height)
	assert.False(t, r.Resized())
	assert.Equal(t, 6, CountMarked(r.Image))
}

func TestRaster_Contains(t *testing.T) {
	r := &Raster{Width: 4, Height: 3}

	assert.True(t, r.Contains(0, 0))
	assert.True(t, r.Contains(3, 2))
	assert.False(t, r.Contains(4, 0))
	assert.False(t, r.Contains(0, 3))
	assert.False(t, r.Contains(-1, 1))

	var none *Raster
	assert.False(t, none.Contains(0, 0))
}

func TestCoverage(t *testing.T) {
	c := newCoverage(130)
	c.mark(0)
	c.mark(64)
	c.mark(129)
	c.mark(64)

	assert.True(t, c.marked(64))
	assert.False(t, c.marked(63))
	assert.Equal(t, 3, c.count())

	var got []int
	c.each(func(i int) { got = append(got, i) })
	assert.Equal(t, []int{0, 64, 129}, got)
}
