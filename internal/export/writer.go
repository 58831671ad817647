// Package export writes border rasters to image files.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/terrainmap/internal/bordermap"
)

// ErrUnknownFormat is returned for an unsupported image format name.
var ErrUnknownFormat = errors.New("unknown image format")

// Format is an output image format.
type Format string

// Supported formats.
const (
	FormatPNG Format = "png"
	FormatBMP Format = "bmp"
)

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatBMP:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Writer saves rasters into a directory.
type Writer struct {
	outputDir string
	format    Format
}

// NewWriter creates a writer for dir. An empty dir writes to the working
// directory.
func NewWriter(dir string, f Format) *Writer {
	return &Writer{
		outputDir: dir,
		format:    f,
	}
}

// Filename returns the path a raster of the given area name and variant
// is written to.
func (w *Writer) Filename(name string, v bordermap.Variant) string {
	filename := name
	if v == bordermap.VariantDebug {
		filename += "_debug"
	}
	filename += "." + string(w.format)
	if w.outputDir != "" {
		filename = filepath.Join(w.outputDir, filename)
	}
	return filename
}

// Save writes r and returns the file path.
func (w *Writer) Save(r *bordermap.Raster, name string, v bordermap.Variant) (string, error) {
	if r == nil || r.Image == nil {
		return "", errors.New("saving raster: no image")
	}

	if w.outputDir != "" {
		if err := os.MkdirAll(w.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := w.Filename(name, v)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if err := Encode(file, r.Image, w.format); err != nil {
		file.Close()
		return "", fmt.Errorf("encoding %s: %w", w.format, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", filename, err)
	}
	return filename, nil
}
