package bordermap

import (
	"fmt"
	"math"
)

// Params holds the constants used to project cells onto the raster.
type Params struct {
	// HeightMultiplier converts a height sample into a pixel offset.
	HeightMultiplier float32
}

// ParamsFromWorldFactor derives projection params from the host's
// world-to-grid conversion factor.
func ParamsFromWorldFactor(worldToGrid float32) Params {
	return Params{HeightMultiplier: worldToGrid * 2}
}

// Validate checks that the multiplier can divide height samples.
func (p Params) Validate() error {
	m := float64(p.HeightMultiplier)
	if m == 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return fmt.Errorf("%w: height multiplier %v", ErrInvalidProjection, p.HeightMultiplier)
	}
	return nil
}

// Project shifts (col, row) up and left by the height offset.
// The offset is the quotient truncated toward zero, so -1.5 becomes -1.
func Project(col, row int, height, multiplier float32) (x, y int) {
	x, y, _ = ProjectChecked(col, row, height, multiplier)
	return x, y
}

// ProjectChecked is Project that reports false when the offset is not a
// finite number (NaN samples, zero multiplier). The returned position is
// the unshifted cell in that case.
func ProjectChecked(col, row int, height, multiplier float32) (x, y int, ok bool) {
	q := math.Trunc(float64(height) / float64(multiplier))
	if math.IsNaN(q) || math.IsInf(q, 0) || q > math.MaxInt32 || q < math.MinInt32 {
		return col, row, false
	}
	offset := int(q)
	return col - offset, row - offset, true
}
