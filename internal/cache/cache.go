// Package cache holds previously computed assisted-classification
// opinions so repeat scans do not re-query the external service.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go-disk-cleaner/internal/metrics"
	"go-disk-cleaner/internal/model"
)

// Store is the persisted layer beneath the in-memory map. Implemented by
// repository.ClassificationRepository; faked in tests.
type Store interface {
	Get(ctx context.Context, signature string) (model.ClassificationRecord, error)
	Put(ctx context.Context, record model.ClassificationRecord) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	MostRecent(ctx context.Context, limit int) ([]model.ClassificationRecord, error)
}

// Cache is the two-tier classification cache. The in-memory layer is
// authoritative for hits; the persisted layer survives restarts. A
// persisted-layer outage degrades the cache to memory-only operation --
// it never blocks classification.
type Cache struct {
	store      Store
	defaultTTL time.Duration
	now        func() time.Time

	mu     sync.Mutex
	memory map[string]model.ClassificationRecord
}

func New(store Store, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = model.DefaultClassificationTTL
	}
	return &Cache{
		store:      store,
		defaultTTL: defaultTTL,
		now:        time.Now,
		memory:     map[string]model.ClassificationRecord{},
	}
}

// Get returns the cached record for a signature, or ErrCacheMiss. Records
// found only in the persisted layer are promoted into memory. Expired
// records are treated as absent.
func (c *Cache) Get(ctx context.Context, signature string) (model.ClassificationRecord, error) {
	now := c.now()

	c.mu.Lock()
	if record, ok := c.memory[signature]; ok {
		if record.Expired(now) {
			delete(c.memory, signature)
			c.mu.Unlock()
			metrics.CacheMisses.Inc()
			return model.ClassificationRecord{}, model.ErrCacheMiss
		}
		c.mu.Unlock()
		metrics.CacheHits.Inc()
		return record, nil
	}
	c.mu.Unlock()

	if c.store == nil {
		metrics.CacheMisses.Inc()
		return model.ClassificationRecord{}, model.ErrCacheMiss
	}

	record, err := c.store.Get(ctx, signature)
	if err != nil {
		if err != model.ErrCacheMiss {
			slog.Warn("classification store read failed, serving memory only", "error", err)
		}
		metrics.CacheMisses.Inc()
		return model.ClassificationRecord{}, model.ErrCacheMiss
	}
	if record.Expired(now) {
		metrics.CacheMisses.Inc()
		return model.ClassificationRecord{}, model.ErrCacheMiss
	}

	c.mu.Lock()
	c.memory[signature] = record
	c.mu.Unlock()
	metrics.CacheHits.Inc()
	return record, nil
}

// DefaultTTL is the sentinel callers pass to Put to apply the cache's
// configured TTL. An explicit zero is honored as written: such a record
// is already expired on the next Get.
const DefaultTTL = time.Duration(-1)

// Put writes a fresh record to both layers, last writer wins.
func (c *Cache) Put(ctx context.Context, signature string, tier model.RiskTier, confidence float64, reason string, ttl time.Duration) model.ClassificationRecord {
	if ttl < 0 {
		ttl = c.defaultTTL
	}
	record := model.ClassificationRecord{
		Signature:  signature,
		Tier:       tier,
		Confidence: confidence,
		Reason:     reason,
		CreatedAt:  c.now(),
		TTL:        ttl,
	}

	c.mu.Lock()
	c.memory[signature] = record
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Put(ctx, record); err != nil {
			slog.Warn("classification store write failed, record kept in memory", "signature", signature, "error", err)
		}
	}
	return record
}

// InvalidateExpired sweeps both layers and returns how many records were
// evicted. Safe to call concurrently with Get and Put.
func (c *Cache) InvalidateExpired(ctx context.Context) int {
	now := c.now()
	evicted := 0

	c.mu.Lock()
	for signature, record := range c.memory {
		if record.Expired(now) {
			delete(c.memory, signature)
			evicted++
		}
	}
	c.mu.Unlock()

	if c.store != nil {
		count, err := c.store.DeleteExpired(ctx, now)
		if err != nil {
			slog.Warn("classification store sweep failed", "error", err)
		} else {
			evicted += count
		}
	}
	return evicted
}

// Warmup preloads the most recently written persisted records into
// memory. Called once at startup; best effort.
func (c *Cache) Warmup(ctx context.Context, limit int) int {
	if c.store == nil || limit <= 0 {
		return 0
	}

	records, err := c.store.MostRecent(ctx, limit)
	if err != nil {
		slog.Warn("classification cache warmup failed", "error", err)
		return 0
	}

	now := c.now()
	loaded := 0
	c.mu.Lock()
	for _, record := range records {
		if record.Expired(now) {
			continue
		}
		if _, exists := c.memory[record.Signature]; !exists {
			c.memory[record.Signature] = record
			loaded++
		}
	}
	c.mu.Unlock()
	return loaded
}

// Len reports the in-memory layer size, for metrics and tests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.memory)
}
