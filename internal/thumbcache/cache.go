package thumbcache

import (
	"image"
	"sync"

	"media-browser/internal/logging"
	"media-browser/internal/metrics"
)

// Store is a persistent tier behind the in-memory map.
type Store interface {
	// Backend names the store kind for metrics ("disk", "sqlite").
	Backend() string
	// Load returns the stored image. ok is false when key is absent.
	Load(key string) (img image.Image, ok bool, err error)
	// Save stores img under key, overwriting any previous entry.
	Save(key string, img image.Image) error
}

// Options configures a Cache.
type Options struct {
	// Name labels the cache in logs and metrics. Defaults to "thumbnails".
	Name string
	// Store is optional.
	Store Store
}

// Cache maps source locators to decoded thumbnails. It is safe for
// concurrent use.
type Cache struct {
	name    string
	store   Store
	mu      sync.RWMutex
	entries map[string]image.Image
}

// New creates an empty cache.
func New(opts Options) *Cache {
	name := opts.Name
	if name == "" {
		name = "thumbnails"
	}
	return &Cache{
		name:    name,
		store:   opts.Store,
		entries: make(map[string]image.Image),
	}
}

// Name returns the cache label.
func (c *Cache) Name() string {
	return c.name
}

// Get returns the image stored under key.
func (c *Cache) Get(key string) (image.Image, bool) {
	c.mu.RLock()
	img, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		metrics.ThumbnailCacheHits.WithLabelValues(c.name, "memory").Inc()
		return img, true
	}

	if c.store != nil {
		stored, found, err := c.store.Load(key)
		if err != nil {
			metrics.ThumbnailStoreErrors.WithLabelValues(c.store.Backend(), "load").Inc()
			logging.Warn("Thumbnail store %s load failed for %s: %v", c.store.Backend(), key, err)
		} else if found {
			metrics.ThumbnailCacheHits.WithLabelValues(c.name, "store").Inc()
			return c.promote(key, stored), true
		}
	}

	metrics.ThumbnailCacheMisses.WithLabelValues(c.name).Inc()
	return nil, false
}

// promote copies a store hit into memory unless a Set won the race.
func (c *Cache) promote(key string, img image.Image) image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.entries[key]; ok {
		return current
	}
	c.entries[key] = img
	return img
}

// Set stores img under key, overwriting any previous entry. The memory tier
// is updated before Set returns; the store is written afterwards.
func (c *Cache) Set(key string, img image.Image) {
	if img == nil {
		return
	}

	c.mu.Lock()
	c.entries[key] = img
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Save(key, img); err != nil {
		metrics.ThumbnailStoreErrors.WithLabelValues(c.store.Backend(), "save").Inc()
		logging.Warn("Thumbnail store %s save failed for %s: %v", c.store.Backend(), key, err)
	}
}

// Len returns the number of entries held in memory.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
