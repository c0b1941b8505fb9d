package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache sits in front of the Store. It is a performance optimization, never a
// correctness dependency: implementations must treat every internal failure
// as a miss and must never block the caller beyond a short timeout. An
// expired entry is indistinguishable from a miss.
type Cache interface {
	// Get returns the cached tenant for key, or false on miss.
	Get(ctx context.Context, key string) (*Tenant, bool)

	// Set stores a tenant under key for ttl. The TTL is fixed at write time;
	// reads do not extend it, so a status change becomes visible within one
	// TTL window even under constant hits.
	Set(ctx context.Context, key string, t *Tenant, ttl time.Duration)

	// Delete removes key. Called on tenant mutation so stale permissive
	// state cannot be served past the change.
	Delete(ctx context.Context, key string)

	// DeleteAll removes every tenant entry.
	DeleteAll(ctx context.Context)

	// Close releases resources held by the cache.
	Close() error
}

// DefaultCacheTTL matches the resolver's default freshness window.
const DefaultCacheTTL = 5 * time.Minute

// memoryCache is a process-local Cache for single-node deployments and
// tests. Entries are evicted least-recently-used once maxEntries is reached;
// a janitor goroutine sweeps expired entries.
type memoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	order      []string
	maxEntries int
	stop       chan struct{}
	done       chan struct{}
	closed     bool
}

type memoryEntry struct {
	tenant    *Tenant
	expiresAt time.Time
}

// DefaultCacheSize caps the in-memory cache.
const DefaultCacheSize = 1000

// NewMemoryCache creates an in-memory Cache with the default size limit.
func NewMemoryCache() Cache {
	return NewMemoryCacheWithSize(DefaultCacheSize)
}

// NewMemoryCacheWithSize creates an in-memory Cache holding at most maxEntries.
func NewMemoryCacheWithSize(maxEntries int) Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	c := &memoryCache{
		entries:    make(map[string]memoryEntry),
		order:      make([]string, 0, maxEntries),
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *memoryCache) Get(_ context.Context, key string) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		c.unlink(key)
		return nil, false
	}
	c.touch(key)
	return e.tenant, true
}

func (c *memoryCache) Set(_ context.Context, key string, t *Tenant, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		if len(c.order) > 0 {
			oldest := c.order[0]
			delete(c.entries, oldest)
			c.order = c.order[1:]
		}
	}
	c.entries[key] = memoryEntry{tenant: t, expiresAt: time.Now().Add(ttl)}
	c.touch(key)
}

func (c *memoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.unlink(key)
}

func (c *memoryCache) DeleteAll(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
	c.order = c.order[:0]
}

func (c *memoryCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *memoryCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			c.unlink(key)
		}
	}
}

// touch moves key to the most-recently-used end of the order queue.
func (c *memoryCache) touch(key string) {
	c.unlink(key)
	c.order = append(c.order, key)
}

func (c *memoryCache) unlink(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *memoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

// noopCache disables caching entirely; every lookup goes to the Store.
type noopCache struct{}

// NewNoopCache returns a Cache that never stores anything.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string) (*Tenant, bool)         { return nil, false }
func (noopCache) Set(context.Context, string, *Tenant, time.Duration) {}
func (noopCache) Delete(context.Context, string)                      {}
func (noopCache) DeleteAll(context.Context)                           {}
func (noopCache) Close() error                                        { return nil }
