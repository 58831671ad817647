package bordermap

import (
	"image"
	"image/color"
)

// Marker colors.
var (
	MarkerColor      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	DebugMarkerColor = color.RGBA{R: 255, A: 255}
)

// Raster is a composed border map ready for texture upload.
type Raster struct {
	Image *image.RGBA

	// Width and Height are the final dimensions after any size cap.
	Width  int
	Height int

	// SourceWidth and SourceHeight are the grid dimensions the raster was
	// composed at.
	SourceWidth  int
	SourceHeight int
}

// Contains reports whether the pixel (x, y) lies inside the raster.
func (r *Raster) Contains(x, y int) bool {
	if r == nil {
		return false
	}
	return inBounds(x, y, r.Width, r.Height)
}

// Scale returns the ratio between final and source width.
func (r *Raster) Scale() float64 {
	if r == nil || r.SourceWidth == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.SourceWidth)
}

// Resized reports whether the size cap shrank the raster.
func (r *Raster) Resized() bool {
	return r != nil && (r.Width != r.SourceWidth || r.Height != r.SourceHeight)
}

func inBounds(x, y, width, height int) bool {
	return x >= 0 && x < width && y >= 0 && y < height
}

// CountMarked returns the number of non-transparent pixels in img.
func CountMarked(img image.Image) int {
	if img == nil {
		return 0
	}
	if rgba, ok := img.(*image.RGBA); ok {
		n := 0
		for i := 3; i < len(rgba.Pix); i += 4 {
			if rgba.Pix[i] != 0 {
				n++
			}
		}
		return n
	}

	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				n++
			}
		}
	}
	return n
}
