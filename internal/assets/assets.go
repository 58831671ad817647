// Package assets resolves game files from GRF archives and a loose data
// directory, caching what it reads.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/terrainmap/pkg/encoding"
	"github.com/Faultbox/terrainmap/pkg/grf"
)

// ErrNotFound is returned when no source holds the requested file.
var ErrNotFound = errors.New("asset not found")

// Manager handles asset loading from GRF files and a data directory.
// Archives are searched in reverse order (last added = highest priority),
// the data directory last.
type Manager struct {
	archives []*grf.Archive
	dataDir  string
	cache    *Cache
	log      *zap.Logger
	mu       sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cache: NewCache(),
		log:   log,
	}
}

// AddArchive opens a GRF archive and adds it to the manager.
func (m *Manager) AddArchive(path string) error {
	archive, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}
	m.Mount(archive)
	m.log.Info("archive mounted", zap.String("path", path), zap.Int("files", archive.Len()))
	return nil
}

// Mount adds an already opened archive. The manager takes ownership.
func (m *Manager) Mount(archive *grf.Archive) {
	m.mu.Lock()
	m.archives = append(m.archives, archive)
	m.mu.Unlock()
}

// SetDataDir sets the directory searched for loose files. It stands in
// for the archive's "data/" root, so "data/x.gat" maps to dir/x.gat.
func (m *Manager) SetDataDir(dir string) {
	m.mu.Lock()
	m.dataDir = dir
	m.mu.Unlock()
}

// Load loads a file from the archives or the data directory.
func (m *Manager) Load(path string) ([]byte, error) {
	key := encoding.NormalizeGRFPath(path)
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.archives) - 1; i >= 0; i-- {
		data, err := m.archives[i].Read(key)
		if err == nil {
			m.cache.Set(key, data)
			return data, nil
		}
		if !errors.Is(err, grf.ErrNotFound) {
			return nil, err
		}
	}

	if m.dataDir != "" {
		data, err := os.ReadFile(m.loosePath(key))
		if err == nil {
			m.cache.Set(key, data)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// List returns every known path with the given extension, sorted and
// without duplicates.
func (m *Manager) List(ext string) []string {
	ext = strings.ToLower(ext)
	seen := make(map[string]struct{})

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, archive := range m.archives {
		for _, p := range archive.List() {
			if strings.HasSuffix(p, ext) {
				seen[p] = struct{}{}
			}
		}
	}

	if m.dataDir != "" {
		_ = filepath.WalkDir(m.dataDir, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(m.dataDir, p)
			if err != nil {
				return nil
			}
			rel = encoding.NormalizeGRFPath("data/" + filepath.ToSlash(rel))
			if strings.HasSuffix(rel, ext) {
				seen[rel] = struct{}{}
			}
			return nil
		})
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// loosePath maps "data/a/b.gat" onto the data directory.
func (m *Manager) loosePath(key string) string {
	rel := strings.TrimPrefix(key, "data/")
	return filepath.Join(m.dataDir, filepath.FromSlash(rel))
}

// CacheStats returns cache hit and miss counts.
func (m *Manager) CacheStats() (hits, misses int) {
	return m.cache.Stats()
}

// Close closes all archives.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, archive := range m.archives {
		if err := archive.Close(); err != nil {
			m.log.Warn("closing archive", zap.Error(err))
		}
	}
	m.archives = nil
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
