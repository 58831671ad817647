// Package formats provides parsers for Ragnarok Online file formats.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// GAT format errors.
var (
	ErrInvalidGATMagic       = errors.New("invalid GAT magic: expected 'GRAT'")
	ErrUnsupportedGATVersion = errors.New("unsupported GAT version")
	ErrTruncatedGATData      = errors.New("truncated GAT data")
	ErrInvalidGATDimensions  = errors.New("invalid GAT dimensions")
)

const (
	gatMagic      = "GRAT"
	gatHeaderSize = 14
	gatCellSize   = 20
	gatMaxEdge    = 4096
)

// GATVersion represents the GAT file version.
type GATVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v GATVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// GATCellType represents the walkability type of a cell.
type GATCellType uint32

// Cell type constants.
const (
	GATWalkable      GATCellType = 0 // Normal walkable ground
	GATBlocked       GATCellType = 1 // Cannot walk through
	GATWater         GATCellType = 2 // Water (walkable with certain skills)
	GATWalkableWater GATCellType = 3 // Shore/shallow water
	GATSnipeable     GATCellType = 4 // Can attack over but not walk (cliffs)
	GATBlockedSnipe  GATCellType = 5 // Blocked but can shoot over
)

// String returns a human-readable cell type name.
func (t GATCellType) String() string {
	switch t {
	case GATWalkable:
		return "Walkable"
	case GATBlocked:
		return "Blocked"
	case GATWater:
		return "Water"
	case GATWalkableWater:
		return "Walkable+Water"
	case GATSnipeable:
		return "Snipeable"
	case GATBlockedSnipe:
		return "Blocked+Snipe"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// IsWalkable returns true if the cell type allows walking.
func (t GATCellType) IsWalkable() bool {
	return t == GATWalkable || t == GATWalkableWater
}

// IsWater returns true if the cell contains water.
func (t GATCellType) IsWater() bool {
	return t == GATWater || t == GATWalkableWater
}

// GATCell represents a single cell in the GAT grid.
type GATCell struct {
	// Heights contains the altitude of each corner:
	// [0] = bottom-left, [1] = bottom-right, [2] = top-left, [3] = top-right
	Heights [4]float32
	Type    GATCellType
}

// AverageHeight returns the average altitude of all four corners.
func (c *GATCell) AverageHeight() float32 {
	return (c.Heights[0] + c.Heights[1] + c.Heights[2] + c.Heights[3]) / 4.0
}

// GAT represents a parsed Ground Altitude Table file.
// Cells are stored row by row starting at the southern edge (y = 0).
type GAT struct {
	Version GATVersion
	Width   uint32
	Height  uint32
	Cells   []GATCell
}

// GetCell returns the cell at the given coordinates.
// Returns nil if coordinates are out of bounds.
func (g *GAT) GetCell(x, y int) *GATCell {
	if x < 0 || y < 0 || x >= int(g.Width) || y >= int(g.Height) {
		return nil
	}
	return &g.Cells[y*int(g.Width)+x]
}

// IsWalkable checks if the cell at (x, y) is walkable.
func (g *GAT) IsWalkable(x, y int) bool {
	cell := g.GetCell(x, y)
	if cell == nil {
		return false
	}
	return cell.Type.IsWalkable()
}

// gatHeader is the fixed-size file header.
type gatHeader struct {
	Magic  [4]byte
	Minor  uint8
	Major  uint8
	Width  uint32
	Height uint32
}

// ParseGAT parses a GAT file from raw bytes.
func ParseGAT(data []byte) (*GAT, error) {
	if len(data) < gatHeaderSize {
		return nil, ErrTruncatedGATData
	}

	var hdr gatHeader
	if err := binary.Read(bytes.NewReader(data[:gatHeaderSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedGATData)
	}
	if string(hdr.Magic[:]) != gatMagic {
		return nil, ErrInvalidGATMagic
	}

	version := GATVersion{Major: hdr.Major, Minor: hdr.Minor}
	// Supported versions: 1.2, 1.3, 2.x, 3.x (cell format is identical)
	if version.Major < 1 || version.Major > 3 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGATVersion, version)
	}

	if hdr.Width == 0 || hdr.Height == 0 || hdr.Width > gatMaxEdge || hdr.Height > gatMaxEdge {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGATDimensions, hdr.Width, hdr.Height)
	}

	cellCount := int(hdr.Width) * int(hdr.Height)
	body := data[gatHeaderSize:]
	if len(body) < cellCount*gatCellSize {
		return nil, fmt.Errorf("%w: need %d cells, have %d bytes", ErrTruncatedGATData, cellCount, len(body))
	}

	// GATCell mirrors the on-disk layout (4 x float32 + uint32), so the
	// whole table decodes in one call.
	cells := make([]GATCell, cellCount)
	if err := binary.Read(bytes.NewReader(body[:cellCount*gatCellSize]), binary.LittleEndian, cells); err != nil {
		return nil, fmt.Errorf("%w: reading cells: %v", ErrTruncatedGATData, err)
	}

	return &GAT{
		Version: version,
		Width:   hdr.Width,
		Height:  hdr.Height,
		Cells:   cells,
	}, nil
}

// ParseGATFile parses a GAT file from disk.
func ParseGATFile(path string) (*GAT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GAT file: %w", err)
	}
	return ParseGAT(data)
}

// CountByType returns the count of cells for each type.
func (g *GAT) CountByType() map[GATCellType]int {
	counts := make(map[GATCellType]int)
	for _, cell := range g.Cells {
		counts[cell.Type]++
	}
	return counts
}

// GetAltitudeRange returns the minimum and maximum altitude in the map.
func (g *GAT) GetAltitudeRange() (lo, hi float32) {
	if len(g.Cells) == 0 {
		return 0, 0
	}

	lo = g.Cells[0].Heights[0]
	hi = g.Cells[0].Heights[0]
	for _, cell := range g.Cells {
		for _, h := range cell.Heights {
			lo = min(lo, h)
			hi = max(hi, h)
		}
	}
	return lo, hi
}

// MarshalBinary encodes the GAT in its on-disk form.
func (g *GAT) MarshalBinary() ([]byte, error) {
	if len(g.Cells) != int(g.Width)*int(g.Height) {
		return nil, fmt.Errorf("%w: %d cells for %dx%d", ErrInvalidGATDimensions, len(g.Cells), g.Width, g.Height)
	}

	buf := bytes.NewBuffer(make([]byte, 0, gatHeaderSize+len(g.Cells)*gatCellSize))
	hdr := gatHeader{
		Minor:  g.Version.Minor,
		Major:  g.Version.Major,
		Width:  g.Width,
		Height: g.Height,
	}
	copy(hdr.Magic[:], gatMagic)
	if err := binary.Write(buf, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, g.Cells); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
