package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Source delivers asset bytes addressed by slash-separated paths.
// size is the content length, or 0 when unknown.
type Source interface {
	Open(ctx context.Context, path string) (rc io.ReadCloser, size int64, err error)
}

// OpenSource picks a source for a location: http(s) URLs become an
// HTTPSource, anything else is a directory.
func OpenSource(location string) (Source, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, nil)
	}
	return NewDirSource(location)
}

// CachedSource keeps fully read assets in memory so that resubmitting a
// request (or sharing a texture between pieces) does not refetch it.
type CachedSource struct {
	src   Source
	cache *Cache
}

// NewCachedSource wraps src with an in-memory cache.
func NewCachedSource(src Source) *CachedSource {
	return &CachedSource{src: src, cache: NewCache()}
}

// Open serves path from the cache, reading it through on a miss.
func (c *CachedSource) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	if data, ok := c.cache.Get(path); ok {
		return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
	}

	rc, size, err := c.src.Open(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	return &cacheFiller{ReadCloser: rc, path: path, cache: c.cache}, size, nil
}

// Invalidate drops path so the next Open reads the underlying source.
func (c *CachedSource) Invalidate(path string) {
	c.cache.Delete(path)
}

// Cache returns the underlying cache.
func (c *CachedSource) Cache() *Cache {
	return c.cache
}

// cacheFiller stores what it reads once the stream reaches EOF.
type cacheFiller struct {
	io.ReadCloser
	path  string
	cache *Cache
	buf   bytes.Buffer
	done  bool
}

func (f *cacheFiller) Read(p []byte) (int, error) {
	n, err := f.ReadCloser.Read(p)
	f.buf.Write(p[:n])
	if err == io.EOF && !f.done {
		f.done = true
		f.cache.Set(f.path, bytes.Clone(f.buf.Bytes()))
	}
	return n, err
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	// Stats
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

// Delete removes an item.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
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
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// String implements fmt.Stringer for log fields.
func (c *Cache) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("%d entries, %d hits, %d misses", len(c.data), c.hits, c.misses)
}
