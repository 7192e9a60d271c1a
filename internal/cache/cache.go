// Package cache is a small read-through layer over go-cache for the public
// collection endpoints.
//
// Keys are "<collection>" or "<collection>:<suffix>"; Invalidate drops every
// key of a collection at once.
package cache

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Collection names used as key prefixes.
const (
	Skills      = "skills"
	Projects    = "projects"
	Experiences = "experiences"
	Socials     = "socials"
	Blog        = "blog"
	Profile     = "profile"
	Resume      = "resume"
)

type Cache struct {
	store *gocache.Cache
	ttl   time.Duration

	// gen is bumped by every Invalidate. A fetch that started before an
	// invalidation must not store its (now stale) result.
	mu  sync.Mutex
	gen uint64
}

// New creates a cache whose entries live for ttl. A ttl of zero disables
// caching: every Get goes to fetch.
func New(ttl time.Duration) *Cache {
	cleanup := 2 * ttl
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Cache{
		store: gocache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

// Get returns the cached value for key, calling fetch and storing its result
// on a miss. Errors are never cached.
func Get[T any](c *Cache, key string, fetch func() (T, error)) (T, error) {
	if c == nil || c.ttl <= 0 {
		return fetch()
	}

	if v, ok := c.store.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	v, err := fetch()
	if err != nil {
		return v, err
	}

	c.mu.Lock()
	if gen == c.gen {
		c.store.Set(key, v, gocache.DefaultExpiration)
	}
	c.mu.Unlock()
	return v, nil
}

// Invalidate drops every entry of the given collections.
func (c *Cache) Invalidate(collections ...string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++

	for key := range c.store.Items() {
		for _, col := range collections {
			if key == col || strings.HasPrefix(key, col+":") {
				c.store.Delete(key)
				break
			}
		}
	}
}

// Flush empties the cache.
func (c *Cache) Flush() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.gen++
	c.store.Flush()
	c.mu.Unlock()
}
