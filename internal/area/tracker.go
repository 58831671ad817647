package area

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/terrainmap/internal/bordermap"
	"github.com/Faultbox/terrainmap/pkg/walkgrid"
)

// Tracker errors.
var (
	ErrNoSession        = errors.New("no area loaded")
	ErrStaleComposition = errors.New("area changed during composition")
)

// State is the tracker lifecycle state.
type State uint8

// Tracker states.
const (
	StateEmpty State = iota
	StateLoaded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Composer renders area data into a raster.
type Composer interface {
	ComposeVariant(ctx context.Context, g *walkgrid.Grid, h walkgrid.Heights, p bordermap.Params, v bordermap.Variant) (*bordermap.Raster, error)
}

// Tracker holds the current area session and the raster composed for it.
// It is owned by whichever loop receives area-change notifications and is
// safe for concurrent use.
type Tracker struct {
	composer Composer
	log      *zap.Logger

	mu      sync.Mutex
	session *Session
	raster  *bordermap.Raster
	jobs    map[uint64]context.CancelFunc
	nextJob uint64
}

// NewTracker creates an empty tracker composing with c. A nil composer
// uses bordermap defaults.
func NewTracker(c Composer, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	if c == nil {
		c = bordermap.NewComposer(bordermap.Options{Logger: log})
	}
	return &Tracker{
		composer: c,
		log:      log,
		jobs:     make(map[uint64]context.CancelFunc),
	}
}

// State returns the lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return StateEmpty
	}
	return StateLoaded
}

// Current returns the current session, nil when empty.
func (t *Tracker) Current() *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Identity returns the current identity, zero when empty.
func (t *Tracker) Identity() Identity {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return Identity{}
	}
	return t.session.identity
}

// Refresh applies an area-change notification and reports whether the
// session was replaced. Inactive notifications are ignored, notifications
// without an identity clear the tracker, and a repeated identity is a no-op.
// Replacing the session cancels in-flight compositions and drops the raster.
func (t *Tracker) Refresh(n Notification) bool {
	if !n.Active {
		return false
	}
	if !n.Identity.Known() {
		t.Clear()
		return false
	}

	t.mu.Lock()
	if t.session != nil && t.session.identity == n.Identity {
		t.mu.Unlock()
		return false
	}
	s := NewSession(n)
	t.session = s
	t.raster = nil
	t.cancelJobsLocked()
	t.mu.Unlock()

	if err := s.Err(); err != nil {
		t.log.Warn("area loaded without usable grid", zap.Stringer("area", s.identity), zap.Error(err))
	} else {
		t.log.Info("area changed",
			zap.Stringer("area", s.identity),
			zap.Int("width", s.grid.Width()),
			zap.Int("rows", s.grid.Rows()),
			zap.Float32("height_multiplier", s.params.HeightMultiplier))
	}
	return true
}

// Clear resets the tracker to the empty state.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		t.log.Debug("area cleared", zap.Stringer("area", t.session.identity))
	}
	t.session = nil
	t.raster = nil
	t.cancelJobsLocked()
}

func (t *Tracker) cancelJobsLocked() {
	for id, cancel := range t.jobs {
		cancel()
		delete(t.jobs, id)
	}
}

// Compose builds a raster for the current session. Production rasters are
// kept by the tracker until the area changes; debug rasters are only
// returned. If the session is replaced or cleared while composing, the
// result is discarded and ErrStaleComposition is returned.
func (t *Tracker) Compose(ctx context.Context, v bordermap.Variant) (*bordermap.Raster, error) {
	t.mu.Lock()
	s := t.session
	if s == nil {
		t.mu.Unlock()
		return nil, ErrNoSession
	}
	if err := s.Err(); err != nil {
		t.mu.Unlock()
		t.log.Warn("cannot generate border map for current area", zap.Stringer("area", s.identity), zap.Error(err))
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	id := t.nextJob
	t.nextJob++
	t.jobs[id] = cancel
	t.mu.Unlock()

	r, err := t.composer.ComposeVariant(ctx, s.grid, s.heights, s.params, v)

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
	cancel()

	if t.session != s {
		t.log.Debug("discarding stale border map", zap.Stringer("area", s.identity))
		return nil, ErrStaleComposition
	}
	if err != nil {
		return nil, err
	}
	if v == bordermap.VariantProduction {
		t.raster = r
	}
	return r, nil
}

// Raster returns the production raster of the current session, if composed.
func (t *Tracker) Raster() *bordermap.Raster {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.raster
}

// Contains reports whether (x, y) lies inside the current raster.
func (t *Tracker) Contains(x, y int) bool {
	return t.Raster().Contains(x, y)
}
