package formats

import "github.com/Faultbox/terrainmap/pkg/walkgrid"

// Walk values assigned to GAT cell types when packing a walkability grid.
// Shore cells only admit the smallest entities, which also keeps them on
// the outline.
const (
	WalkValueGround uint8 = 5
	WalkValueShore  uint8 = 1
)

// WalkValue returns the packed walkability value of a cell type.
func (t GATCellType) WalkValue() uint8 {
	switch t {
	case GATWalkable:
		return WalkValueGround
	case GATWalkableWater:
		return WalkValueShore
	default:
		return walkgrid.Unwalkable
	}
}

// row returns the grid row of GAT row y. GAT rows run south to north,
// grid rows run top to bottom.
func (g *GAT) row(y int) int {
	return int(g.Height) - 1 - y
}

// PackWalkability encodes the cell types into a nibble-packed grid buffer
// and returns it with its row stride.
func (g *GAT) PackWalkability() ([]byte, int) {
	width, height := int(g.Width), int(g.Height)
	bytesPerRow := (width + 1) / 2
	data := make([]byte, bytesPerRow*height)

	for y := range height {
		base := g.row(y) * bytesPerRow
		for x := range width {
			v := g.Cells[y*width+x].Type.WalkValue()
			if x%2 == 0 {
				data[base+x/2] |= v
			} else {
				data[base+x/2] |= v << 4
			}
		}
	}
	return data, bytesPerRow
}

// HeightGrid returns the average corner altitude of every cell in grid row
// order. GAT altitudes grow downward, so they are negated.
func (g *GAT) HeightGrid() walkgrid.Heights {
	width, height := int(g.Width), int(g.Height)
	samples := make([]float32, width*height)
	h := make(walkgrid.Heights, height)

	for y := range height {
		r := g.row(y)
		h[r] = samples[r*width : (r+1)*width]
		for x := range width {
			h[r][x] = -g.Cells[y*width+x].AverageHeight()
		}
	}
	return h
}
