// internal/matching/cache.go
package matching

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/logger"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/metrics"
	"github.com/redis/go-redis/v9"
)

// GeocodeCache memoizes geocoder answers by normalized location. A nil
// coordinate is a negative entry: the location is known not to resolve.
type GeocodeCache interface {
	Lookup(ctx context.Context, key string) (coord *Coordinate, found bool)
	Store(ctx context.Context, key string, coord *Coordinate)
}

// MemoryGeocodeCache is an append-only, process-local cache. Concurrent
// stores of the same key are last-write-wins.
type MemoryGeocodeCache struct {
	mu      sync.RWMutex
	entries map[string]*Coordinate
}

func NewMemoryGeocodeCache() *MemoryGeocodeCache {
	return &MemoryGeocodeCache{entries: make(map[string]*Coordinate)}
}

func (c *MemoryGeocodeCache) Lookup(_ context.Context, key string) (*Coordinate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	coord, ok := c.entries[key]
	if !ok || coord == nil {
		return nil, ok
	}
	cp := *coord
	return &cp, true
}

func (c *MemoryGeocodeCache) Store(_ context.Context, key string, coord *Coordinate) {
	var stored *Coordinate
	if coord != nil {
		cp := *coord
		stored = &cp
	}
	c.mu.Lock()
	c.entries[key] = stored
	c.mu.Unlock()
}

// Len returns the number of cached entries, negative ones included.
func (c *MemoryGeocodeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

const DefaultGeocodeKeyPrefix = "geocode:"

// RedisGeocodeCache shares geocoder answers between worker replicas. Values
// are JSON coordinates or the literal null for negative entries. Redis
// failures are logged and treated as a miss.
type RedisGeocodeCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

// NewRedisGeocodeCache builds a cache over client. A ttl of 0 keeps entries
// until evicted by Redis itself.
func NewRedisGeocodeCache(client redis.Cmdable, prefix string, ttl time.Duration, log logger.Logger) *RedisGeocodeCache {
	if prefix == "" {
		prefix = DefaultGeocodeKeyPrefix
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &RedisGeocodeCache{client: client, prefix: prefix, ttl: ttl, logger: log}
}

func (c *RedisGeocodeCache) Lookup(ctx context.Context, key string) (*Coordinate, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("geocode cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil, false
	}

	var coord *Coordinate
	if err := json.Unmarshal(raw, &coord); err != nil {
		c.logger.Warn("discarding malformed geocode cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}
	return coord, true
}

func (c *RedisGeocodeCache) Store(ctx context.Context, key string, coord *Coordinate) {
	raw, err := json.Marshal(coord)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("geocode cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// TieredGeocodeCache checks a local cache before a shared one and promotes
// shared hits into the local layer.
type TieredGeocodeCache struct {
	local  GeocodeCache
	shared GeocodeCache
}

func NewTieredGeocodeCache(local, shared GeocodeCache) *TieredGeocodeCache {
	return &TieredGeocodeCache{local: local, shared: shared}
}

func (c *TieredGeocodeCache) Lookup(ctx context.Context, key string) (*Coordinate, bool) {
	if coord, ok := c.local.Lookup(ctx, key); ok {
		metrics.GeocodeCacheHits.WithLabelValues("memory").Inc()
		return coord, true
	}
	coord, ok := c.shared.Lookup(ctx, key)
	if !ok {
		return nil, false
	}
	metrics.GeocodeCacheHits.WithLabelValues("redis").Inc()
	c.local.Store(ctx, key, coord)
	return coord, true
}

func (c *TieredGeocodeCache) Store(ctx context.Context, key string, coord *Coordinate) {
	c.local.Store(ctx, key, coord)
	c.shared.Store(ctx, key, coord)
}
