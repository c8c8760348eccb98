package symbol

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache is the interface for caching query results.
// Implement it with the caching solution of choice (Redis, Memcached,
// in-memory). NewMemoryCache returns an in-process implementation.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the cache's default TTL applies; a cache without
	// a default keeps the value until it is evicted or deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies the result of one compiled statement.
type CacheKey struct {
	Table     string
	Operation string
	SQL       string
	Args      []any
}

// TablePrefix returns the prefix shared by all keys of a table.
func TablePrefix(table string) string {
	return table + ":"
}

// String returns the string representation of the cache key.
func (k CacheKey) String() string {
	h := sha256.New()
	h.Write([]byte(k.SQL))
	for _, arg := range k.Args {
		fmt.Fprintf(h, "\x00%T:%v", arg, arg)
	}
	return TablePrefix(k.Table) + k.Operation + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}

// MemoryCache is an in-process LRU cache with per entry expiration.
type MemoryCache struct {
	mu      sync.Mutex
	size    int
	ttl     time.Duration
	ll      *list.List
	entries map[string]*list.Element
	now     func() time.Time
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache returns a cache holding at most size entries. Entries set
// without a TTL expire after ttl, or never when ttl is 0.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1024
	}
	return &MemoryCache{
		size:    size,
		ttl:     ttl,
		ll:      list.New(),
		entries: make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	e := el.Value.(*memoryEntry)
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.remove(el)
		return nil, nil
	}
	c.ll.MoveToFront(el)
	return e.value, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttl == 0 {
		ttl = c.ttl
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*memoryEntry)
		e.value, e.expiresAt = value, expiresAt
		c.ll.MoveToFront(el)
		return nil
	}
	if c.ll.Len() >= c.size {
		c.remove(c.ll.Back())
	}
	c.entries[key] = c.ll.PushFront(&memoryEntry{key: key, value: value, expiresAt: expiresAt})
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
	return nil
}

// DeletePrefix implements Cache.
func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, el := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.remove(el)
		}
	}
	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.entries = make(map[string]*list.Element)
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *MemoryCache) remove(el *list.Element) {
	c.ll.Remove(el)
	delete(c.entries, el.Value.(*memoryEntry).key)
}
