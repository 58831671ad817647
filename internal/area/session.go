// Package area tracks the currently observed area and composes its border map.
package area

import (
	"fmt"
	"time"

	"github.com/Faultbox/terrainmap/internal/bordermap"
	"github.com/Faultbox/terrainmap/pkg/walkgrid"
)

// Identity distinguishes area instances. Two instances of the same area
// share an ID but differ in Hash.
type Identity struct {
	ID   string
	Hash string
}

// Known reports whether the identity could be determined.
func (i Identity) Known() bool {
	return i.ID != ""
}

// String returns "id#hash".
func (i Identity) String() string {
	if i.Hash == "" {
		return i.ID
	}
	return i.ID + "#" + i.Hash
}

// Notification carries the data of an area change.
type Notification struct {
	// Active is false when the host is in a state where tracking is
	// suppressed (menus, loading screens).
	Active bool

	Identity    Identity
	Walkable    []byte
	BytesPerRow int
	Heights     walkgrid.Heights

	// WorldToGrid converts world height units into grid cells.
	WorldToGrid float32
}

// Session is the immutable data of one area instance.
type Session struct {
	identity Identity
	grid     *walkgrid.Grid
	heights  walkgrid.Heights
	params   bordermap.Params
	err      error
	loadedAt time.Time
}

// NewSession builds a session from a notification. A grid with an invalid
// stride still yields a session; its error is reported by Err and by every
// composition attempt.
func NewSession(n Notification) *Session {
	s := &Session{
		identity: n.Identity,
		heights:  n.Heights,
		params:   bordermap.ParamsFromWorldFactor(n.WorldToGrid),
		loadedAt: time.Now(),
	}
	if n.Walkable == nil {
		s.err = fmt.Errorf("area %s: %w", n.Identity, bordermap.ErrMissingData)
		return s
	}
	grid, err := walkgrid.New(n.Walkable, n.BytesPerRow)
	if err != nil {
		s.err = fmt.Errorf("area %s: %w", n.Identity, err)
		return s
	}
	s.grid = grid
	return s
}

// Identity returns the area identity.
func (s *Session) Identity() Identity { return s.identity }

// Grid returns the walkability grid, nil when the session is invalid.
func (s *Session) Grid() *walkgrid.Grid { return s.grid }

// Heights returns the height samples.
func (s *Session) Heights() walkgrid.Heights { return s.heights }

// Params returns the projection params.
func (s *Session) Params() bordermap.Params { return s.params }

// Err returns the reason the session cannot be composed, if any.
func (s *Session) Err() error { return s.err }

// LoadedAt returns when the session was created.
func (s *Session) LoadedAt() time.Time { return s.loadedAt }

// Rows returns the number of grid rows, 0 for an invalid grid.
func (s *Session) Rows() int {
	if s.grid == nil {
		return 0
	}
	return s.grid.Rows()
}
