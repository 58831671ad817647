package area

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/terrainmap/internal/bordermap"
	"github.com/Faultbox/terrainmap/pkg/walkgrid"
)

// notification returns an active 4x4 area with a single walkable cell.
func notification(id, hash string) Notification {
	return Notification{
		Active:   true,
		Identity: Identity{ID: id, Hash: hash},
		// Row 1, col 1 = 2; everything else unwalkable.
		Walkable:    []byte{0x00, 0x00, 0x20, 0x00, 0x00, 0x00, 0x00, 0x00},
		BytesPerRow: 2,
		Heights:     walkgrid.Uniform(4, 4, 0),
		WorldToGrid: 0.5,
	}
}

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker(nil, nil)
	assert.Equal(t, StateEmpty, tr.State())
	assert.Nil(t, tr.Current())

	assert.True(t, tr.Refresh(notification("town", "a1")))
	assert.Equal(t, StateLoaded, tr.State())
	assert.Equal(t, Identity{ID: "town", Hash: "a1"}, tr.Identity())

	first := tr.Current()
	assert.False(t, tr.Refresh(notification("town", "a1")), "same identity is a no-op")
	assert.Same(t, first, tr.Current())

	assert.True(t, tr.Refresh(notification("town", "b2")), "new instance of same area")
	assert.NotSame(t, first, tr.Current())

	tr.Clear()
	assert.Equal(t, StateEmpty, tr.State())
	assert.Equal(t, Identity{}, tr.Identity())
}

func TestTracker_InactiveIgnored(t *testing.T) {
	tr := NewTracker(nil, nil)
	require.True(t, tr.Refresh(notification("town", "a1")))

	n := notification("field", "c3")
	n.Active = false
	assert.False(t, tr.Refresh(n))
	assert.Equal(t, "town", tr.Identity().ID, "inactive notification keeps the session")
}

func TestTracker_UnknownIdentityClears(t *testing.T) {
	tr := NewTracker(nil, nil)
	require.True(t, tr.Refresh(notification("town", "a1")))
	_, err := tr.Compose(context.Background(), bordermap.VariantProduction)
	require.NoError(t, err)

	assert.False(t, tr.Refresh(notification("", "x")))
	assert.Equal(t, StateEmpty, tr.State())
	assert.Nil(t, tr.Raster())
}

func TestTracker_ComposeInstallsRaster(t *testing.T) {
	tr := NewTracker(nil, nil)

	_, err := tr.Compose(context.Background(), bordermap.VariantProduction)
	assert.ErrorIs(t, err, ErrNoSession)

	require.True(t, tr.Refresh(notification("town", "a1")))
	r, err := tr.Compose(context.Background(), bordermap.VariantProduction)
	require.NoError(t, err)

	assert.Same(t, r, tr.Raster())
	assert.Equal(t, 4, r.Width)
	assert.Equal(t, 4, r.Height)
	// (1,0), (1,2) and (2,1) surround the walkable cell; (0,1) is an edge column.
	assert.Equal(t, 3, bordermap.CountMarked(r.Image))
	assert.True(t, tr.Contains(3, 3))
	assert.False(t, tr.Contains(4, 0))

	debug, err := tr.Compose(context.Background(), bordermap.VariantDebug)
	require.NoError(t, err)
	assert.NotSame(t, debug, tr.Raster(), "debug raster is not installed")

	require.True(t, tr.Refresh(notification("field", "c3")))
	assert.Nil(t, tr.Raster(), "raster discarded on area change")
	assert.False(t, tr.Contains(0, 0))
}

func TestTracker_InvalidGrid(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tr := NewTracker(nil, zap.New(core))

	n := notification("town", "a1")
	n.BytesPerRow = 0
	assert.True(t, tr.Refresh(n), "invalid grid still replaces the previous area")

	s := tr.Current()
	require.NotNil(t, s)
	assert.ErrorIs(t, s.Err(), walkgrid.ErrInvalidGridMetadata)
	assert.Nil(t, s.Grid())
	assert.Zero(t, s.Rows())

	r, err := tr.Compose(context.Background(), bordermap.VariantProduction)
	assert.ErrorIs(t, err, bordermap.ErrInvalidGridMetadata)
	assert.Nil(t, r)
	assert.Equal(t, 2, logs.Len())
}

func TestTracker_MissingWalkable(t *testing.T) {
	tr := NewTracker(nil, nil)
	n := notification("town", "a1")
	n.Walkable = nil
	require.True(t, tr.Refresh(n))

	_, err := tr.Compose(context.Background(), bordermap.VariantProduction)
	assert.ErrorIs(t, err, bordermap.ErrMissingData)
}

func TestTracker_MissingHeights(t *testing.T) {
	tr := NewTracker(nil, nil)
	n := notification("town", "a1")
	n.Heights = nil
	require.True(t, tr.Refresh(n))

	_, err := tr.Compose(context.Background(), bordermap.VariantProduction)
	assert.ErrorIs(t, err, bordermap.ErrMissingData)
}

// blockingComposer waits until released or cancelled.
type blockingComposer struct {
	started chan struct{}
	once    sync.Once
	ctxErr  chan error
}

func newBlockingComposer() *blockingComposer {
	return &blockingComposer{
		started: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
}

func (b *blockingComposer) ComposeVariant(ctx context.Context, _ *walkgrid.Grid, _ walkgrid.Heights, _ bordermap.Params, _ bordermap.Variant) (*bordermap.Raster, error) {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	b.ctxErr <- ctx.Err()
	return &bordermap.Raster{Width: 1, Height: 1}, nil
}

func TestTracker_StaleCompositionDiscarded(t *testing.T) {
	tests := []struct {
		name   string
		change func(tr *Tracker)
	}{
		{"area changed", func(tr *Tracker) { tr.Refresh(notification("field", "c3")) }},
		{"area cleared", func(tr *Tracker) { tr.Clear() }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bc := newBlockingComposer()
			tr := NewTracker(bc, nil)
			require.True(t, tr.Refresh(notification("town", "a1")))

			type result struct {
				r   *bordermap.Raster
				err error
			}
			done := make(chan result, 1)
			go func() {
				r, err := tr.Compose(context.Background(), bordermap.VariantProduction)
				done <- result{r, err}
			}()

			<-bc.started
			tc.change(tr)

			res := <-done
			assert.ErrorIs(t, res.err, ErrStaleComposition)
			assert.Nil(t, res.r)
			assert.ErrorIs(t, <-bc.ctxErr, context.Canceled, "in-flight composition is cancelled")
			assert.Nil(t, tr.Raster())
		})
	}
}

func TestTracker_CallerCancel(t *testing.T) {
	bc := newBlockingComposer()
	tr := NewTracker(bc, nil)
	require.True(t, tr.Refresh(notification("town", "a1")))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-bc.started
		cancel()
	}()

	// The fake ignores cancellation errors, so the raster of the still
	// current session is installed.
	r, err := tr.Compose(ctx, bordermap.VariantProduction)
	require.NoError(t, err)
	assert.Same(t, r, tr.Raster())
}

func TestIdentity(t *testing.T) {
	assert.False(t, Identity{}.Known())
	assert.True(t, Identity{ID: "town"}.Known())
	assert.Equal(t, "town", Identity{ID: "town"}.String())
	assert.Equal(t, "town#a1", Identity{ID: "town", Hash: "a1"}.String())
	assert.Equal(t, "loaded", StateLoaded.String())
}

func TestNewSession_Params(t *testing.T) {
	s := NewSession(notification("town", "a1"))
	require.NoError(t, s.Err())
	assert.Equal(t, float32(1), s.Params().HeightMultiplier)
	assert.Equal(t, 4, s.Rows())
	assert.False(t, s.LoadedAt().IsZero())
}
