package fuzzy

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of compiled patterns kept by NewCache(0).
const DefaultCacheSize = 256

// literalPrefix separates literal patterns from fuzzy ones in the cache key
// space. It cannot appear in typed input.
const literalPrefix = "\x00lit\x00"

// Cache memoizes compiled patterns with LRU eviction.
// It is safe for concurrent use.
type Cache struct {
	patterns *lru.Cache[string, *Pattern]
}

// NewCache creates a pattern cache holding at most size patterns.
// A size <= 0 uses DefaultCacheSize.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	patterns, err := lru.New[string, *Pattern](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic("fuzzy: " + err.Error())
	}
	return &Cache{patterns: patterns}
}

// Compile returns the cached ordered-subsequence pattern for query,
// compiling it on a miss. Compilation errors are not cached.
func (c *Cache) Compile(query string) (*Pattern, error) {
	if p, ok := c.patterns.Get(query); ok {
		return p, nil
	}
	p, err := Compile(query)
	if err != nil {
		return nil, err
	}
	c.patterns.Add(query, p)
	return p, nil
}

// CompileLiteral returns the cached literal pattern for term.
func (c *Cache) CompileLiteral(term string) (*Pattern, error) {
	key := literalPrefix + term
	if p, ok := c.patterns.Get(key); ok {
		return p, nil
	}
	p, err := CompileLiteral(term)
	if err != nil {
		return nil, err
	}
	c.patterns.Add(key, p)
	return p, nil
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	return c.patterns.Len()
}

// Purge removes every cached pattern.
func (c *Cache) Purge() {
	c.patterns.Purge()
}
