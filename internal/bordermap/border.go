// Package bordermap composes walkability grids into border rasters.
//
// A border cell is one that is itself (mostly) unwalkable but touches a
// walkable neighbor. Border cells are shifted by their terrain height and
// marked in an RGBA raster whose longer edge is capped for texture upload.
package bordermap

import "github.com/Faultbox/terrainmap/pkg/walkgrid"

// thickCell is always eligible as a border, which widens the outline by one
// ring on the walkable side.
const thickCell uint8 = 1

// IsBorder reports whether the cell at (col, row) lies on the edge between
// walkable and unwalkable terrain. Callers only query interior columns
// (1..Width()-2); rows outside the grid read as unwalkable.
func IsBorder(g *walkgrid.Grid, col, row int) bool {
	current := g.CellValue(col, row)
	if current != thickCell && walkgrid.Walkable(current) {
		return false
	}

	return walkgrid.Walkable(g.CellValue(col, row+1)) ||
		walkgrid.Walkable(g.CellValue(col, row-1)) ||
		walkgrid.Walkable(g.CellValue(col-1, row)) ||
		walkgrid.Walkable(g.CellValue(col+1, row))
}
