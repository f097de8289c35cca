package source

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shopbot/catalog-service/internal/cache"
	"github.com/shopbot/catalog-service/internal/types"
)

// CachedSource wraps a Source, serving row lists from the cache store
// and recording fetched lists as serialized blobs under the "rows:"
// namespace. Fetch errors are never cached.
type CachedSource struct {
	inner  Source
	store  cache.Store
	ttl    time.Duration
	logger zerolog.Logger

	// mu guards keys, the set of store keys this decorator has written.
	// Invalidate drops exactly these, leaving foreign entries (the
	// persisted snapshot, per-user records) alone.
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewCachedSource creates a caching decorator around inner. Entries
// expire after ttl; a zero ttl caches until eviction.
func NewCachedSource(inner Source, store cache.Store, ttl time.Duration) *CachedSource {
	return &CachedSource{
		inner:  inner,
		store:  store,
		ttl:    ttl,
		logger: log.With().Str("component", "cached_source").Logger(),
		keys:   make(map[string]struct{}),
	}
}

func (c *CachedSource) FetchCatalogRows(ctx context.Context) ([]types.Row, error) {
	return c.fetch(ctx, cache.KeyCatalogRows, c.inner.FetchCatalogRows)
}

func (c *CachedSource) FetchScheduleRows(ctx context.Context, shopID string) ([]types.Row, error) {
	return c.fetch(ctx, cache.ScheduleRowsKey(shopID), func(ctx context.Context) ([]types.Row, error) {
		return c.inner.FetchScheduleRows(ctx, shopID)
	})
}

func (c *CachedSource) FetchUserRows(ctx context.Context) ([]types.Row, error) {
	return c.fetch(ctx, cache.KeyUserRows, c.inner.FetchUserRows)
}

// Invalidate drops the cached row lists this decorator has written so
// the next fetch hits the backing store. Other entries on the shared
// store survive.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	keys := c.keys
	c.keys = make(map[string]struct{})
	c.mu.Unlock()

	for key := range keys {
		c.store.Delete(key)
	}
}

func (c *CachedSource) fetch(ctx context.Context, key string, load func(context.Context) ([]types.Row, error)) ([]types.Row, error) {
	if blob, ok := c.store.Get(key); ok {
		var rows []types.Row
		if err := json.Unmarshal(blob, &rows); err == nil {
			return rows, nil
		}
		// Unreadable blob: drop it and refetch.
		c.logger.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
		c.store.Delete(key)
	}

	rows, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if blob, err := json.Marshal(rows); err == nil {
		c.store.Set(key, blob, c.ttl)
		c.mu.Lock()
		c.keys[key] = struct{}{}
		c.mu.Unlock()
	}
	return rows, nil
}
