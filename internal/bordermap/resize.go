package bordermap

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// DefaultMaxEdge bounds the longer raster edge to a safe texture size.
const DefaultMaxEdge = 8192

// FitWithin returns the dimensions of a w×h raster shrunk so its longer edge
// equals maxEdge. The shorter edge is scaled proportionally and rounded down,
// never below one pixel. Rasters already within the limit are unchanged.
func FitWithin(w, h, maxEdge int) (int, int) {
	if maxEdge <= 0 || max(w, h) <= maxEdge {
		return w, h
	}
	if h > w {
		w = max(w*maxEdge/h, 1)
		h = maxEdge
	} else {
		h = max(h*maxEdge/w, 1)
		w = maxEdge
	}
	return w, h
}

// downscale resamples src into a new w×h image.
func downscale(src *image.RGBA, w, h int, filter xdraw.Interpolator) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	filter.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
