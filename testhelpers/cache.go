package testhelpers

import (
	"context"
	"sync"
	"time"

	"catalogsync/internal/caching"
)

var _ caching.CacheService = (*MemoryCache)(nil)

// MemoryCache is an in-process caching.CacheService. TTLs are ignored.
type MemoryCache struct {
	mu       sync.Mutex
	assets   map[string]int64
	locks    map[string]bool
	counters map[string]int

	// LockErr, when set, is returned by AcquireLock.
	LockErr error
	// PingErr, when set, is returned by Ping.
	PingErr error
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		assets:   make(map[string]int64),
		locks:    make(map[string]bool),
		counters: make(map[string]int),
	}
}

func (c *MemoryCache) GetImageAssetID(ctx context.Context, sourceURL string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assets[sourceURL], nil
}

func (c *MemoryCache) SetImageAssetID(ctx context.Context, sourceURL string, assetID int64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets[sourceURL] = assetID
	return nil
}

func (c *MemoryCache) DeleteImageAssetID(ctx context.Context, sourceURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.assets, sourceURL)
	return nil
}

func (c *MemoryCache) AcquireLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LockErr != nil {
		return nil, false, c.LockErr
	}
	if c.locks[name] {
		return nil, false, nil
	}
	c.locks[name] = true
	return func(context.Context) error {
		c.Release(name)
		return nil
	}, true, nil
}

// Hold marks name as locked by another process.
func (c *MemoryCache) Hold(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locks[name] = true
}

func (c *MemoryCache) Release(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, name)
}

func (c *MemoryCache) Locked(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locks[name]
}

func (c *MemoryCache) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key] > limit, nil
}

func (c *MemoryCache) Ping(ctx context.Context) error {
	return c.PingErr
}
