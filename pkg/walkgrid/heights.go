package walkgrid

import "fmt"

// Heights holds one height sample per cell, indexed [row][col].
// Rows may be wider than the walkability grid they accompany.
type Heights [][]float32

// HeightsFromFlat splits a row-major sample array into rows of cols samples.
// A trailing partial row is kept.
func HeightsFromFlat(flat []float32, cols int) (Heights, error) {
	if cols <= 0 {
		return nil, fmt.Errorf("invalid height row width: %d", cols)
	}
	rows := (len(flat) + cols - 1) / cols
	h := make(Heights, rows)
	for y := range rows {
		end := min((y+1)*cols, len(flat))
		h[y] = flat[y*cols : end]
	}
	return h, nil
}

// Uniform returns a rows×cols height grid filled with v.
func Uniform(rows, cols int, v float32) Heights {
	h := make(Heights, rows)
	for y := range h {
		h[y] = make([]float32, cols)
		if v != 0 {
			for x := range h[y] {
				h[y][x] = v
			}
		}
	}
	return h
}

// At returns the sample at (col, row) and whether it exists.
func (h Heights) At(col, row int) (float32, bool) {
	if row < 0 || row >= len(h) || col < 0 || col >= len(h[row]) {
		return 0, false
	}
	return h[row][col], true
}
