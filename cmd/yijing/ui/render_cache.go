package ui

import (
	"hash/fnv"
	"strconv"
	"sync"
)

// RenderCache memoizes rendered markdown. Bot answers are immutable once
// they replace their placeholder, so the history can be rebuilt on every
// spinner tick without re-running glamour.
type RenderCache struct {
	mu      sync.Mutex
	entries map[uint64]string
	maxSize int
	hits    int
	misses  int
}

// DefaultRenderCacheSize bounds a cache created with a non-positive size.
const DefaultRenderCacheSize = 256

// NewRenderCache creates a cache holding at most maxSize renders.
func NewRenderCache(maxSize int) *RenderCache {
	if maxSize <= 0 {
		maxSize = DefaultRenderCacheSize
	}
	return &RenderCache{
		entries: make(map[uint64]string),
		maxSize: maxSize,
	}
}

// RenderKey identifies one render of content at a given width and theme.
func RenderKey(content string, width int, dark bool) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(content))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(strconv.AppendInt(nil, int64(width), 10))
	if dark {
		_, _ = h.Write([]byte{1})
	}
	return h.Sum64()
}

// GetOrCompute returns the cached render for key, computing it on a miss.
// When full the cache is emptied rather than tracking recency.
func (rc *RenderCache) GetOrCompute(key uint64, compute func() string) string {
	rc.mu.Lock()
	if s, ok := rc.entries[key]; ok {
		rc.hits++
		rc.mu.Unlock()
		return s
	}
	rc.misses++
	rc.mu.Unlock()

	s := compute()

	rc.mu.Lock()
	if len(rc.entries) >= rc.maxSize {
		clear(rc.entries)
	}
	rc.entries[key] = s
	rc.mu.Unlock()
	return s
}

// Clear empties the cache.
func (rc *RenderCache) Clear() {
	rc.mu.Lock()
	clear(rc.entries)
	rc.mu.Unlock()
}

// Len returns the number of cached renders.
func (rc *RenderCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries)
}

// Stats returns hit and miss counts.
func (rc *RenderCache) Stats() (hits, misses int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.hits, rc.misses
}
