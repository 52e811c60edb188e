// Package texture loads and caches albedo images for preview rendering.
package texture

import (
	"image"
	"os"
	"sync"
)

// Resolver resolves a texture name or path to a decoded image.
type Resolver interface {
	Resolve(texName string) *image.NRGBA
}

// Cache is a concurrency-safe texture cache. Names that exist on disk are
// loaded directly; anything else is looked up by stem in the index.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*image.NRGBA // nil value: load attempted and failed
	index *Index
}

// NewCache creates a texture cache backed by index, which may be nil.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*image.NRGBA),
		index: index,
	}
}

// Resolve loads and caches a texture. Returns nil if not found.
func (c *Cache) Resolve(texName string) *image.NRGBA {
	if texName == "" {
		return nil
	}
	path := texName
	if _, err := os.Stat(path); err != nil {
		if c.index == nil {
			return nil
		}
		var ok bool
		if path, ok = c.index.ResolvePath(texName); !ok {
			return nil
		}
	}

	c.mu.RLock()
	img, exists := c.items[path]
	c.mu.RUnlock()
	if exists {
		return img
	}

	img, _ = LoadTexture(path)

	// Double-check under the write lock.
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, exists := c.items[path]; exists {
		return prev
	}
	c.items[path] = img
	return img
}
