package formats

import (
	"bytes"
	"testing"

	"github.com/Faultbox/terrainmap/pkg/walkgrid"
)

func TestGATCellType_WalkValue(t *testing.T) {
	tests := []struct {
		cellType GATCellType
		expected uint8
	}{
		{GATWalkable, WalkValueGround},
		{GATBlocked, 0},
		{GATWater, 0},
		{GATWalkableWater, WalkValueShore},
		{GATSnipeable, 0},
		{GATBlockedSnipe, 0},
		{GATCellType(42), 0},
	}

	for _, tc := range tests {
		if got := tc.cellType.WalkValue(); got != tc.expected {
			t.Errorf("%v.WalkValue() = %d, expected %d", tc.cellType, got, tc.expected)
		}
	}
}

func TestGAT_PackWalkability(t *testing.T) {
	cellTypes := []GATCellType{
		// y = 0 (south edge)
		GATWalkable, GATBlocked, GATWalkableWater,
		// y = 1
		GATBlocked, GATWalkable, GATWater,
	}
	gat, err := ParseGAT(createTestGAT(3, 2, cellTypes))
	if err != nil {
		t.Fatalf("ParseGAT failed: %v", err)
	}

	data, bytesPerRow := gat.PackWalkability()
	if bytesPerRow != 2 {
		t.Fatalf("expected 2 bytes per row, got %d", bytesPerRow)
	}

	// North row first, odd columns in the high nibble.
	expected := []byte{0x50, 0x00, 0x05, 0x01}
	if !bytes.Equal(data, expected) {
		t.Errorf("expected % x, got % x", expected, data)
	}

	grid, err := walkgrid.New(data, bytesPerRow)
	if err != nil {
		t.Fatalf("walkgrid.New failed: %v", err)
	}
	if grid.Rows() != 2 || grid.Width() != 4 {
		t.Errorf("expected 4x2 grid, got %dx%d", grid.Width(), grid.Rows())
	}
	if v := grid.CellValue(1, 0); v != WalkValueGround {
		t.Errorf("cell (1,0) = %d, expected %d", v, WalkValueGround)
	}
	if v := grid.CellValue(2, 1); v != WalkValueShore {
		t.Errorf("cell (2,1) = %d, expected %d", v, WalkValueShore)
	}
	if v := grid.CellValue(3, 1); v != 0 {
		t.Errorf("padding cell (3,1) = %d, expected 0", v)
	}
}

func TestGAT_HeightGrid(t *testing.T) {
	altitudes := []float32{
		-1, -2, -3, // y = 0
		-4, -5, -6, // y = 1
	}
	gat, err := ParseGAT(createTestGATWithHeights(3, 2, nil, altitudes))
	if err != nil {
		t.Fatalf("ParseGAT failed: %v", err)
	}

	h := gat.HeightGrid()
	if len(h) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(h))
	}

	expected := [][]float32{{4, 5, 6}, {1, 2, 3}}
	for y := range expected {
		for x := range expected[y] {
			if h[y][x] != expected[y][x] {
				t.Errorf("height (%d,%d) = %v, expected %v", x, y, h[y][x], expected[y][x])
			}
		}
	}
}
