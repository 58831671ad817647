// Package walkgrid provides access to bit-packed walkability grids and their
// per-cell height samples.
package walkgrid

import (
	"errors"
	"fmt"
)

// ErrInvalidGridMetadata is returned when a grid has no usable row stride.
var ErrInvalidGridMetadata = errors.New("invalid grid metadata: bytes per row must be positive")

// Unwalkable is the cell value for terrain no entity can enter.
// Values 1..15 encode the minimum entity size able to walk the cell.
const Unwalkable uint8 = 0

// Grid is an immutable walkability grid with two 4-bit cells per byte.
// The low nibble holds the even column, the high nibble the odd column.
type Grid struct {
	data        []byte
	bytesPerRow int
	rows        int
}

// New wraps walkable data with the given row stride.
// The slice is not copied and must not be modified afterwards.
func New(data []byte, bytesPerRow int) (*Grid, error) {
	if bytesPerRow <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGridMetadata, bytesPerRow)
	}
	return &Grid{
		data:        data,
		bytesPerRow: bytesPerRow,
		rows:        len(data) / bytesPerRow,
	}, nil
}

// CellValue returns the 4-bit value of the cell at (col, row).
// Positions whose byte falls outside the buffer read as Unwalkable, so the
// rows just above and below the grid behave like solid terrain.
func (g *Grid) CellValue(col, row int) uint8 {
	if col < 0 {
		// col/2 truncates toward zero; keep negative columns out of row 0.
		return Unwalkable
	}
	index := row*g.bytesPerRow + col/2
	if index < 0 || index >= len(g.data) {
		return Unwalkable
	}
	b := g.data[index]
	if col%2 == 0 {
		return b & 0xF
	}
	return (b >> 4) & 0xF
}

// Walkable reports whether a cell value can be walked by any entity size.
func Walkable(v uint8) bool {
	return v != Unwalkable
}

// BytesPerRow returns the row stride in bytes.
func (g *Grid) BytesPerRow() int {
	return g.bytesPerRow
}

// Width returns the number of cells per row.
func (g *Grid) Width() int {
	return g.bytesPerRow * 2
}

// Rows returns the number of complete rows in the buffer.
func (g *Grid) Rows() int {
	return g.rows
}

// Len returns the size of the walkable buffer in bytes.
func (g *Grid) Len() int {
	return len(g.data)
}

// Bytes returns a copy of the packed buffer.
func (g *Grid) Bytes() []byte {
	out := make([]byte, len(g.data))
	copy(out, g.data)
	return out
}

// Pack encodes a cell matrix indexed [row][col] into a grid.
// Rows shorter than the widest row are padded with Unwalkable cells and
// values above 15 are truncated to their low nibble.
func Pack(cells [][]uint8) (*Grid, error) {
	width := 0
	for _, row := range cells {
		if len(row) > width {
			width = len(row)
		}
	}
	bytesPerRow := (width + 1) / 2

	data := make([]byte, bytesPerRow*len(cells))
	for y, row := range cells {
		for x, v := range row {
			i := y*bytesPerRow + x/2
			if x%2 == 0 {
				data[i] |= v & 0xF
			} else {
				data[i] |= (v & 0xF) << 4
			}
		}
	}
	return New(data, bytesPerRow)
}
