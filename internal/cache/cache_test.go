package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-disk-cleaner/internal/model"
)

type fakeStore struct {
	records map[string]model.ClassificationRecord

	getErr    error
	putErr    error
	deleteErr error
	recentErr error

	puts    int
	deleted int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]model.ClassificationRecord{}}
}

func (f *fakeStore) Get(_ context.Context, signature string) (model.ClassificationRecord, error) {
	if f.getErr != nil {
		return model.ClassificationRecord{}, f.getErr
	}
	record, ok := f.records[signature]
	if !ok {
		return model.ClassificationRecord{}, model.ErrCacheMiss
	}
	return record, nil
}

func (f *fakeStore) Put(_ context.Context, record model.ClassificationRecord) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.puts++
	f.records[record.Signature] = record
	return nil
}

func (f *fakeStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	count := 0
	for signature, record := range f.records {
		if record.Expired(now) {
			delete(f.records, signature)
			count++
		}
	}
	f.deleted += count
	return count, nil
}

func (f *fakeStore) MostRecent(_ context.Context, limit int) ([]model.ClassificationRecord, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	out := make([]model.ClassificationRecord, 0, limit)
	for _, record := range f.records {
		if len(out) >= limit {
			break
		}
		out = append(out, record)
	}
	return out, nil
}

func newTestCache(store Store, ttl time.Duration) (*Cache, *time.Time) {
	c := New(store, ttl)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }
	return c, &current
}

func TestCacheGetPut(t *testing.T) {
	t.Parallel()

	t.Run("put then get hits memory", func(t *testing.T) {
		store := newFakeStore()
		c, _ := newTestCache(store, time.Hour)

		c.Put(context.Background(), "sig", model.TierSafe, 0.9, "cached opinion", DefaultTTL)

		record, err := c.Get(context.Background(), "sig")
		require.NoError(t, err)
		require.Equal(t, model.TierSafe, record.Tier)
		require.Equal(t, time.Hour, record.TTL)
		require.Equal(t, 1, store.puts)
	})

	t.Run("unknown signature misses", func(t *testing.T) {
		c, _ := newTestCache(newFakeStore(), time.Hour)

		_, err := c.Get(context.Background(), "absent")
		require.ErrorIs(t, err, model.ErrCacheMiss)
	})

	t.Run("expired memory record is evicted and misses", func(t *testing.T) {
		c, now := newTestCache(newFakeStore(), time.Hour)
		c.Put(context.Background(), "sig", model.TierSafe, 0.9, "", DefaultTTL)

		*now = now.Add(2 * time.Hour)

		_, err := c.Get(context.Background(), "sig")
		require.ErrorIs(t, err, model.ErrCacheMiss)
		require.Equal(t, 0, c.Len())
	})

	t.Run("explicit zero ttl expires on the next tick", func(t *testing.T) {
		c, now := newTestCache(newFakeStore(), time.Hour)
		c.Put(context.Background(), "sig", model.TierSafe, 0.9, "", 0)

		*now = now.Add(time.Nanosecond)

		_, err := c.Get(context.Background(), "sig")
		require.ErrorIs(t, err, model.ErrCacheMiss)
	})

	t.Run("persisted record is promoted into memory", func(t *testing.T) {
		store := newFakeStore()
		c, now := newTestCache(store, time.Hour)
		store.records["sig"] = model.ClassificationRecord{
			Signature: "sig",
			Tier:      model.TierDangerous,
			CreatedAt: *now,
			TTL:       time.Hour,
		}

		record, err := c.Get(context.Background(), "sig")
		require.NoError(t, err)
		require.Equal(t, model.TierDangerous, record.Tier)
		require.Equal(t, 1, c.Len())
	})

	t.Run("expired persisted record misses", func(t *testing.T) {
		store := newFakeStore()
		c, now := newTestCache(store, time.Hour)
		store.records["sig"] = model.ClassificationRecord{
			Signature: "sig",
			Tier:      model.TierSafe,
			CreatedAt: now.Add(-2 * time.Hour),
			TTL:       time.Hour,
		}

		_, err := c.Get(context.Background(), "sig")
		require.ErrorIs(t, err, model.ErrCacheMiss)
	})
}

func TestCacheDegradedStore(t *testing.T) {
	t.Parallel()

	t.Run("store read failure degrades to a miss", func(t *testing.T) {
		store := newFakeStore()
		store.getErr = errors.New("connection refused")
		c, _ := newTestCache(store, time.Hour)

		_, err := c.Get(context.Background(), "sig")
		require.ErrorIs(t, err, model.ErrCacheMiss)
	})

	t.Run("store write failure keeps the record in memory", func(t *testing.T) {
		store := newFakeStore()
		store.putErr = errors.New("connection refused")
		c, _ := newTestCache(store, time.Hour)

		c.Put(context.Background(), "sig", model.TierSafe, 0.9, "", DefaultTTL)

		record, err := c.Get(context.Background(), "sig")
		require.NoError(t, err)
		require.Equal(t, model.TierSafe, record.Tier)
		require.Equal(t, 0, store.puts)
	})

	t.Run("nil store works memory only", func(t *testing.T) {
		c, _ := newTestCache(nil, time.Hour)

		c.Put(context.Background(), "sig", model.TierSuspicious, 0.5, "", DefaultTTL)

		record, err := c.Get(context.Background(), "sig")
		require.NoError(t, err)
		require.Equal(t, model.TierSuspicious, record.Tier)
	})
}

func TestCacheInvalidateExpired(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	c, now := newTestCache(store, time.Hour)

	c.Put(context.Background(), "fresh", model.TierSafe, 0.9, "", DefaultTTL)
	c.Put(context.Background(), "stale", model.TierSafe, 0.9, "", time.Minute)
	store.records["store-only"] = model.ClassificationRecord{
		Signature: "store-only",
		CreatedAt: now.Add(-2 * time.Hour),
		TTL:       time.Minute,
	}

	*now = now.Add(30 * time.Minute)

	// Memory evicts "stale"; the store sweep evicts its copy of "stale"
	// plus "store-only".
	evicted := c.InvalidateExpired(context.Background())
	require.Equal(t, 3, evicted)
	require.Equal(t, 1, c.Len())

	record, err := c.Get(context.Background(), "fresh")
	require.NoError(t, err)
	require.Equal(t, model.TierSafe, record.Tier)
}

func TestCacheWarmup(t *testing.T) {
	t.Parallel()

	t.Run("loads fresh records and skips expired ones", func(t *testing.T) {
		store := newFakeStore()
		c, now := newTestCache(store, time.Hour)
		store.records["fresh"] = model.ClassificationRecord{Signature: "fresh", CreatedAt: *now, TTL: time.Hour}
		store.records["stale"] = model.ClassificationRecord{Signature: "stale", CreatedAt: now.Add(-2 * time.Hour), TTL: time.Minute}

		loaded := c.Warmup(context.Background(), 10)
		require.Equal(t, 1, loaded)
		require.Equal(t, 1, c.Len())
	})

	t.Run("store failure loads nothing", func(t *testing.T) {
		store := newFakeStore()
		store.recentErr = errors.New("connection refused")
		c, _ := newTestCache(store, time.Hour)

		require.Equal(t, 0, c.Warmup(context.Background(), 10))
	})

	t.Run("nil store or zero limit is a no-op", func(t *testing.T) {
		c, _ := newTestCache(nil, time.Hour)
		require.Equal(t, 0, c.Warmup(context.Background(), 10))

		c2, _ := newTestCache(newFakeStore(), time.Hour)
		require.Equal(t, 0, c2.Warmup(context.Background(), 0))
	})
}
