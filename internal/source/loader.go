// Package source turns map files into area-change notifications.
package source

import (
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/Faultbox/terrainmap/internal/area"
	"github.com/Faultbox/terrainmap/pkg/encoding"
	"github.com/Faultbox/terrainmap/pkg/formats"
)

// DefaultWorldToGrid is the size of a ground cell in world units.
const DefaultWorldToGrid float32 = 5

// Assets loads raw files by archive path.
type Assets interface {
	Load(path string) ([]byte, error)
}

// Loader builds notifications for named maps.
type Loader struct {
	assets      Assets
	worldToGrid float32
	log         *zap.Logger
}

// NewLoader creates a loader. A non-positive worldToGrid selects
// DefaultWorldToGrid.
func NewLoader(assets Assets, worldToGrid float32, log *zap.Logger) *Loader {
	if worldToGrid <= 0 {
		worldToGrid = DefaultWorldToGrid
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		assets:      assets,
		worldToGrid: worldToGrid,
		log:         log,
	}
}

// GATPath returns the archive path of a map's altitude file. Names that
// already carry a path or extension are kept.
func GATPath(name string) string {
	p := encoding.NormalizeGRFPath(name)
	if !strings.HasSuffix(p, ".gat") {
		p += ".gat"
	}
	if !strings.Contains(p, "/") {
		p = "data/" + p
	}
	return p
}

// Load reads and parses the map and returns an active notification for it.
func (l *Loader) Load(name string) (area.Notification, *formats.GAT, error) {
	path := GATPath(name)
	raw, err := l.assets.Load(path)
	if err != nil {
		return area.Notification{}, nil, fmt.Errorf("loading %s: %w", path, err)
	}

	gat, err := formats.ParseGAT(raw)
	if err != nil {
		return area.Notification{}, nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	walkable, bytesPerRow := gat.PackWalkability()
	n := area.Notification{
		Active: true,
		Identity: area.Identity{
			ID:   encoding.MapName(path),
			Hash: Hash(raw),
		},
		Walkable:    walkable,
		BytesPerRow: bytesPerRow,
		Heights:     gat.HeightGrid(),
		WorldToGrid: l.worldToGrid,
	}

	l.log.Debug("map loaded",
		zap.String("path", path),
		zap.Stringer("area", n.Identity),
		zap.Uint32("width", gat.Width),
		zap.Uint32("height", gat.Height),
	)
	return n, gat, nil
}

// Hash returns the first 8 bytes of the BLAKE2b-256 digest of data, hex
// encoded. Identical files yield the same hash.
func Hash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
