// Package datacache memoizes parsed input files, keyed by path and
// invalidated when the file on disk changes.
package datacache

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// LoadFunc parses the file at path.
type LoadFunc[T any] func(path string) (T, error)

// Cache is a concurrent-safe LRU of parsed files. An entry is served while
// the modification time and size of the file, and of any companion files
// passed to Get, match the values seen at load and, when ttl > 0, the entry
// is younger than ttl. Load errors are not cached.
type Cache[T any] struct {
	mu         sync.Mutex
	entries    map[string]*entry[T]
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	hits       atomic.Int64
	misses     atomic.Int64
	reloads    atomic.Int64
}

type entry[T any] struct {
	value    T
	stamps   []stamp
	loadedAt time.Time
}

// stamp identifies one version of a file; a missing file has exists=false.
type stamp struct {
	modTime time.Time
	size    int64
	exists  bool
}

func stampOf(info os.FileInfo) stamp {
	return stamp{modTime: info.ModTime(), size: info.Size(), exists: true}
}

func statStamp(path string) stamp {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}
	}
	return stampOf(info)
}

func (s stamp) equal(o stamp) bool {
	return s.exists == o.exists && s.size == o.size && s.modTime.Equal(o.modTime)
}

// Stats contains cache performance statistics.
type Stats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Reloads    int64   `json:"reloads"`
	HitRate    float64 `json:"hit_rate"`
}

// New creates a Cache holding at most maxEntries files. A ttl of zero keeps
// entries until the file changes or they are evicted.
func New[T any](maxEntries int, ttl time.Duration) *Cache[T] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache[T]{
		entries:    make(map[string]*entry[T]),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the cached value for path, calling load on a miss or when the
// file or one of its companions has changed since it was last loaded. The
// lock is held across load so concurrent callers parse a file once.
func (c *Cache[T]) Get(path string, load LoadFunc[T], companions ...string) (T, error) {
	var zero T

	info, err := os.Stat(path)
	if err != nil {
		c.mu.Lock()
		c.remove(path)
		c.mu.Unlock()
		// The loader reports the missing file in its own terms.
		return load(path)
	}

	stamps := make([]stamp, 0, 1+len(companions))
	stamps = append(stamps, stampOf(info))
	for _, p := range companions {
		stamps = append(stamps, statStamp(p))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[path]; ok {
		if c.fresh(e, stamps) {
			c.touch(path)
			c.hits.Add(1)
			return e.value, nil
		}
		c.remove(path)
		c.reloads.Add(1)
		zap.L().Debug("datacache: file changed, reloading", zap.String("path", path))
	}
	c.misses.Add(1)

	v, err := load(path)
	if err != nil {
		return zero, err
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		c.remove(c.order[0])
	}
	c.entries[path] = &entry[T]{
		value:    v,
		stamps:   stamps,
		loadedAt: c.now(),
	}
	c.order = append(c.order, path)

	return v, nil
}

// Purge drops every entry.
func (c *Cache[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[T])
	c.order = nil
}

// Stats returns cache performance statistics.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	entries := len(c.entries)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Entries:    entries,
		MaxEntries: c.maxEntries,
		Hits:       hits,
		Misses:     misses,
		Reloads:    c.reloads.Load(),
		HitRate:    hitRate,
	}
}

func (c *Cache[T]) fresh(e *entry[T], stamps []stamp) bool {
	if len(e.stamps) != len(stamps) {
		return false
	}
	for i := range stamps {
		if !e.stamps[i].equal(stamps[i]) {
			return false
		}
	}
	if c.ttl > 0 && c.now().Sub(e.loadedAt) > c.ttl {
		return false
	}
	return true
}

// touch moves path to the back of the LRU order.
func (c *Cache[T]) touch(path string) {
	c.removeFromOrder(path)
	c.order = append(c.order, path)
}

func (c *Cache[T]) remove(path string) {
	if _, ok := c.entries[path]; !ok {
		return
	}
	delete(c.entries, path)
	c.removeFromOrder(path)
}

func (c *Cache[T]) removeFromOrder(path string) {
	for i, k := range c.order {
		if k == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
