// Package cache provides memoization for query compilation. The prover
// service recompiles the same query text whenever a client re-registers
// it; caching makes repeated registrations and shared queries cheap.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/zkrdf/zksparql/compile"
)

// CompileCache caches compilation results keyed by query text and the
// options that shape the emitted circuit.
type CompileCache struct {
	mu        sync.RWMutex
	cache     map[string]*compile.Result
	maxSize   int
	hits      int64
	misses    int64
	evictions int64
}

// New creates a cache with the specified maximum size. When the cache
// is full, an arbitrary entry is evicted. Set maxSize to 0 for an
// unbounded cache.
func New(maxSize int) *CompileCache {
	return &CompileCache{
		cache:   make(map[string]*compile.Result),
		maxSize: maxSize,
	}
}

// hashKey creates a deterministic hash of the query text and the
// options that affect the compiled artifact. The logger is ignored.
func hashKey(query string, opts compile.Options) string {
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(opts.PackageName))
	h.Write([]byte{0})
	h.Write([]byte(opts.CircuitName))
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(opts.TreeDepth))
	h.Write(buf)
	return string(h.Sum(nil))
}

// Get retrieves a cached result for the query. Returns nil if not found.
func (c *CompileCache) Get(query string, opts compile.Options) *compile.Result {
	key := hashKey(query, opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if result, ok := c.cache[key]; ok {
		c.hits++
		return result
	}
	c.misses++
	return nil
}

// Put stores a compilation result.
func (c *CompileCache) Put(query string, opts compile.Options, result *compile.Result) {
	key := hashKey(query, opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.cache) >= c.maxSize {
		for k := range c.cache {
			delete(c.cache, k)
			c.evictions++
			break
		}
	}

	c.cache[key] = result
}

// Compile returns the cached result for the query, compiling and
// caching on a miss. Failed compilations are not cached.
func (c *CompileCache) Compile(query string, opts compile.Options) (*compile.Result, error) {
	if result := c.Get(query, opts); result != nil {
		return result, nil
	}

	result, err := compile.Compile(query, opts)
	if err != nil {
		return nil, err
	}
	c.Put(query, opts, result)
	return result, nil
}

// Clear removes all entries from the cache.
func (c *CompileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*compile.Result)
}

// Size returns the current number of cached entries.
func (c *CompileCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Stats holds cache statistics.
type Stats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

// Stats returns cache statistics.
func (c *CompileCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Size:      len(c.cache),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}
