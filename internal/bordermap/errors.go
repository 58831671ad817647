package bordermap

import (
	"errors"

	"github.com/Faultbox/terrainmap/pkg/walkgrid"
)

// Composition errors.
var (
	ErrInvalidGridMetadata = walkgrid.ErrInvalidGridMetadata
	ErrMissingData         = errors.New("missing grid or height data")
	ErrInvalidProjection   = errors.New("invalid projection params")
)
