package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// Defaults sized for the matcher memo: tens of thousands of distinct
// team and league names across all feeds, each costing one item.
const (
	defaultNumCounters = 100000
	defaultMaxCost     = 10000
	defaultBufferItems = 64
)

// RistrettoCache is the ristretto-backed Cache. Admission is
// frequency-based, so names seen on every tick stay resident while
// one-off junk from a malformed feed page gets evicted first.
type RistrettoCache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

// RistrettoConfig holds configuration for the ristretto cache. Zero
// fields fall back to defaults suitable for the name-normalization memo.
type RistrettoConfig struct {
	NumCounters int64 // keys to track frequency for (10x max items)
	MaxCost     int64 // maximum number of cached items
	BufferItems int64 // keys per Get buffer
	Logger      *zap.Logger
}

// NewRistrettoCache creates a new ristretto-backed cache.
func NewRistrettoCache(cfg *RistrettoConfig) (Cache, error) {
	numCounters := cfg.NumCounters
	if numCounters <= 0 {
		numCounters = defaultNumCounters
	}
	maxCost := cfg.MaxCost
	if maxCost <= 0 {
		maxCost = defaultMaxCost
	}
	bufferItems := cfg.BufferItems
	if bufferItems <= 0 {
		bufferItems = defaultBufferItems
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: bufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &RistrettoCache{
		cache:  cache,
		logger: cfg.Logger,
	}, nil
}

// Get retrieves a value from the cache.
func (r *RistrettoCache) Get(key string) (interface{}, bool) {
	value, found := r.cache.Get(key)
	if found {
		CacheHitsTotal.Inc()
		r.logger.Debug("cache-hit", zap.String("key", key))
	} else {
		CacheMissesTotal.Inc()
		r.logger.Debug("cache-miss", zap.String("key", key))
	}
	return value, found
}

// Set stores a value in the cache with a TTL. Every entry costs 1: the
// cache bounds item count, not bytes.
func (r *RistrettoCache) Set(key string, value interface{}, ttl time.Duration) bool {
	success := r.cache.SetWithTTL(key, value, 1, ttl)
	if success {
		CacheSetsTotal.Inc()
		r.logger.Debug("cache-set",
			zap.String("key", key),
			zap.Duration("ttl", ttl))
	}
	return success
}

// Delete removes a value from the cache.
func (r *RistrettoCache) Delete(key string) {
	r.cache.Del(key)
	CacheDeletesTotal.Inc()
	r.logger.Debug("cache-delete", zap.String("key", key))
}

// Clear removes all values from the cache.
func (r *RistrettoCache) Clear() {
	r.cache.Clear()
	r.logger.Info("cache-cleared")
}

// Close closes the cache and releases resources.
func (r *RistrettoCache) Close() {
	r.cache.Close()
	r.logger.Info("cache-closed")
}

// Metrics returns ristretto's internal metrics.
func (r *RistrettoCache) Metrics() *ristretto.Metrics {
	return r.cache.Metrics
}

// Wait blocks until all pending writes have been applied. Ristretto
// applies sets asynchronously, so tests call this before asserting.
func (r *RistrettoCache) Wait() {
	r.cache.Wait()
}
