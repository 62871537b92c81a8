// Package scancache keeps recently compiled scanners around so that
// callers handling the same patterns over and over only pay for
// compilation once.
package scancache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dlclark/regscan"
)

type key struct {
	pattern string
	opt     regscan.Options
	variant regscan.Variant
}

// Cache is a fixed size LRU cache of compiled scanners. It is safe for
// concurrent use.
type Cache struct {
	scanners *lru.Cache[key, regscan.BaseScanner]
}

// New returns a cache holding at most size scanners.
func New(size int) (*Cache, error) {
	scanners, err := lru.New[key, regscan.BaseScanner](size)
	if err != nil {
		return nil, err
	}
	return &Cache{scanners: scanners}, nil
}

// Get returns the scanner for pattern, compiling it on a miss. Patterns
// that fail to compile are not cached.
func (c *Cache) Get(pattern string, opt regscan.Options, v regscan.Variant) (regscan.BaseScanner, error) {
	k := key{pattern, opt, v}
	if s, ok := c.scanners.Get(k); ok {
		return s, nil
	}
	s, err := regscan.CompileAs(pattern, opt, v)
	if err != nil {
		return nil, err
	}
	c.scanners.Add(k, s)
	return s, nil
}

// Len is the number of cached scanners.
func (c *Cache) Len() int {
	return c.scanners.Len()
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.scanners.Purge()
}
