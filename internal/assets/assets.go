// Package assets handles OBJ mesh lookup, loading and caching.
package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/objmesh/internal/logger"
	"github.com/Faultbox/objmesh/pkg/formats"
)

// ErrMeshNotFound is returned when a name resolves in no search path.
var ErrMeshNotFound = errors.New("mesh not found")

// Manager loads meshes from a list of search directories.
// Every parse owns its own buffer and table, so loads may run in parallel.
type Manager struct {
	searchPaths []string
	opts        formats.OBJOptions
	workers     int
	cache       *Cache // nil when caching is disabled
	log         *zap.Logger
	mu          sync.RWMutex
}

// NewManager creates a new mesh manager.
func NewManager(opts formats.OBJOptions, workers int, cache bool) *Manager {
	if workers < 1 {
		workers = 1
	}
	m := &Manager{
		opts:    opts,
		workers: workers,
		log:     logger.Named("assets"),
	}
	if cache {
		m.cache = NewCache()
	}
	return m
}

// AddSearchPath adds a directory to the manager.
// Directories are searched in reverse order (last added = highest priority).
func (m *Manager) AddSearchPath(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding search path %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding search path %s: not a directory", dir)
	}

	m.mu.Lock()
	m.searchPaths = append(m.searchPaths, dir)
	m.mu.Unlock()

	return nil
}

// Resolve maps a mesh name to a file path. Absolute paths and paths that
// exist relative to the working directory are used as is.
func (m *Manager) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.searchPaths) - 1; i >= 0; i-- {
		path := filepath.Join(m.searchPaths[i], name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrMeshNotFound, name)
}

// Load resolves and parses a mesh, using the cache when enabled.
func (m *Manager) Load(name string) (*formats.OBJMesh, error) {
	path, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		if mesh, ok := m.cache.Get(path); ok {
			return mesh, nil
		}
	}

	start := time.Now()
	mesh, err := formats.ParseOBJFile(path, m.opts)
	if err != nil {
		m.log.Debug("mesh load failed", logger.File(path), logger.Failure(err))
		return nil, err
	}

	m.log.Debug("mesh loaded",
		logger.File(path),
		logger.Mesh(mesh),
		zap.Duration("elapsed", time.Since(start)),
	)
	if mesh.SkippedLines > 0 || mesh.Overflows > 0 {
		m.log.Warn("mesh loaded with warnings", logger.File(path), logger.Mesh(mesh))
	}

	if m.cache != nil {
		m.cache.Set(path, mesh)
	}
	return mesh, nil
}

// LoadAll loads every name with at most workers parses in flight.
// It returns the meshes that loaded and all failures combined.
func (m *Manager) LoadAll(ctx context.Context, names []string) (map[string]*formats.OBJMesh, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	var (
		mu     sync.Mutex
		meshes = make(map[string]*formats.OBJMesh, len(names))
		errs   error
	)

	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mesh, err := m.Load(name)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
				return nil
			}
			meshes[name] = mesh
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return meshes, errs
}

// CacheStats returns cache hits and misses, or zeros when caching is off.
func (m *Manager) CacheStats() (hits, misses int) {
	if m.cache == nil {
		return 0, 0
	}
	return m.cache.Stats()
}

// Close drops all cached meshes.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.searchPaths = nil
	if m.cache != nil {
		m.cache.Clear()
	}
}

// Cache is a simple in-memory cache for parsed meshes keyed by path.
type Cache struct {
	data map[string]*formats.OBJMesh
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*formats.OBJMesh),
	}
}

// Get retrieves a mesh from cache.
func (c *Cache) Get(key string) (*formats.OBJMesh, bool) {
	// Write lock: the hit/miss counters change on every lookup.
	c.mu.Lock()
	defer c.mu.Unlock()

	mesh, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return mesh, ok
}

// Set stores a mesh in cache.
func (c *Cache) Set(key string, mesh *formats.OBJMesh) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = mesh
}

// Len returns the number of cached meshes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*formats.OBJMesh)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
