// Package resolver answers "does article X exist in shop Y, who
// supplies it, and when will the next order and delivery happen". It
// serves lookups from an immutable snapshot swapped atomically on
// refresh, so readers never observe a half-built index.
package resolver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shopbot/catalog-service/internal/cache"
	"github.com/shopbot/catalog-service/internal/catalog"
	"github.com/shopbot/catalog-service/internal/schedule"
	"github.com/shopbot/catalog-service/internal/types"
)

// Config tunes a Resolver.
type Config struct {
	// FallbackAnyShop enables the explicit any-shop fallback: when an
	// article is not stocked in the requested shop, answer from any
	// shop that has it, marking the result. Off by default.
	FallbackAnyShop bool
	// BuildTimeout bounds a synchronous cold-start rebuild.
	BuildTimeout time.Duration
	// SnapshotTTL is the cache-store lifetime of the encoded snapshot.
	SnapshotTTL time.Duration
}

// DefaultConfig returns production defaults (12h snapshot lifetime,
// matching the sheet backend's refresh cadence).
func DefaultConfig() Config {
	return Config{
		FallbackAnyShop: false,
		BuildTimeout:    2 * time.Minute,
		SnapshotTTL:     12 * time.Hour,
	}
}

// Resolver is the public entry point of the resolution pipeline.
type Resolver struct {
	builder *catalog.Builder
	store   cache.Store
	config  Config

	snapshot atomic.Value // *catalog.Snapshot
	sf       buildGroup

	clock  func() time.Time
	logger zerolog.Logger
}

// New creates a resolver over the given builder and cache store.
func New(builder *catalog.Builder, store cache.Store, config Config) *Resolver {
	if config.BuildTimeout <= 0 {
		config.BuildTimeout = DefaultConfig().BuildTimeout
	}
	if config.SnapshotTTL <= 0 {
		config.SnapshotTTL = DefaultConfig().SnapshotTTL
	}
	return &Resolver{
		builder: builder,
		store:   store,
		config:  config,
		clock:   time.Now,
		logger:  log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve looks up (article, shop) and assembles the full answer.
// Missing supplier data degrades to a tagged result; only a missing
// product is an error (ErrNotFound).
func (r *Resolver) Resolve(ctx context.Context, article, shop string) (*types.ResolutionResult, error) {
	article = strings.TrimSpace(article)
	shop = strings.TrimSpace(shop)
	if article == "" || shop == "" {
		return nil, types.ErrNotFound
	}

	snap, err := r.snapshotOrLoad(ctx)
	if err != nil {
		resolveTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	product, ok := snap.Lookup(article, shop)
	fromShop := ""
	if !ok && r.config.FallbackAnyShop {
		if p, found := snap.LookupAnyShop(article); found {
			product, ok = p, true
			fromShop = p.Shop
		}
	}
	if !ok {
		resolveTotal.WithLabelValues("not_found").Inc()
		return nil, types.ErrNotFound
	}

	result := &types.ResolutionResult{
		Article:      product.Article,
		Shop:         shop,
		Name:         product.Name,
		Department:   product.Department,
		SupplierCode: product.SupplierCode,
		SupplierName: product.SupplierName,
		NeedsReview:  product.Tier == types.TierLowest,
		FromShop:     fromShop,
	}

	// Schedules are scoped to the requested shop even when the product
	// came from the fallback: delivery happens where the order is placed.
	sched, haveSchedule := types.SupplierSchedule{}, false
	if product.SupplierCode != "" {
		sched, haveSchedule = snap.ScheduleFor(shop, product.SupplierCode)
	}
	if !haveSchedule {
		result.Supplier = types.SupplierStatusNone
		outcome := "degraded"
		if fromShop != "" {
			outcome = "fallback_hit"
		}
		resolveTotal.WithLabelValues(outcome).Inc()
		return result, nil
	}

	if sched.SupplierName != "" {
		result.SupplierName = sched.SupplierName
	}
	orderDate, deliveryDate := schedule.NextOrderAndDelivery(r.clock(), sched.OrderWeekdays, sched.LeadDays)
	result.Supplier = types.SupplierStatusOK
	result.OrderDate = &orderDate
	result.DeliveryDate = &deliveryDate

	if fromShop != "" {
		resolveTotal.WithLabelValues("fallback_hit").Inc()
	} else {
		resolveTotal.WithLabelValues("hit").Inc()
	}
	return result, nil
}

// RefreshNow rebuilds the index and publishes it. Cached source rows
// are invalidated first, so a refresh reads the backing store rather
// than this process's own row cache. The new snapshot is built
// completely before the swap; on failure the previous snapshot stays
// in service and the error is returned to the caller.
func (r *Resolver) RefreshNow(ctx context.Context) error {
	_, err := r.sf.do(func() (*catalog.Snapshot, error) {
		if inv, ok := r.builder.Source().(rowInvalidator); ok {
			inv.Invalidate()
		}
		return r.buildAndPublish()
	})
	return err
}

// rowInvalidator is implemented by sources that cache row lists.
type rowInvalidator interface {
	Invalidate()
}

// Snapshot returns the currently published snapshot, or nil before the
// first successful build.
func (r *Resolver) Snapshot() *catalog.Snapshot {
	snap, _ := r.snapshot.Load().(*catalog.Snapshot)
	return snap
}

// snapshotOrLoad returns the published snapshot, restoring it from the
// cache store or rebuilding synchronously when cold.
func (r *Resolver) snapshotOrLoad(ctx context.Context) (*catalog.Snapshot, error) {
	if snap := r.Snapshot(); snap != nil {
		return snap, nil
	}

	// Cold start: a snapshot blob may survive in the cache store.
	if blob, ok := r.store.Get(cache.KeyCatalog); ok {
		if snap, err := catalog.DecodeSnapshot(blob); err == nil {
			r.publish(snap, false)
			r.logger.Info().Int("products", len(snap.Products)).Msg("Restored snapshot from cache")
			return snap, nil
		}
		r.store.Delete(cache.KeyCatalog)
	}

	snap, err := r.sf.do(func() (*catalog.Snapshot, error) {
		// Re-check after waiting: another caller may have published.
		if snap := r.Snapshot(); snap != nil {
			return snap, nil
		}
		return r.buildAndPublish()
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// buildAndPublish runs one full build under a dedicated timeout so a
// cancelled request cannot poison the shared load, then swaps the
// snapshot in. Last writer wins; results are never merged.
func (r *Resolver) buildAndPublish() (*catalog.Snapshot, error) {
	buildCtx, cancel := context.WithTimeout(context.Background(), r.config.BuildTimeout)
	defer cancel()

	start := time.Now()
	snap, err := r.builder.Build(buildCtx)
	if err != nil {
		buildFailures.Inc()
		return nil, err
	}
	observeBuild(start, snap.SkippedCatalogRows, snap.SkippedScheduleRows, len(snap.Products), len(snap.Schedules))

	r.publish(snap, true)
	return snap, nil
}

// publish swaps the snapshot in and optionally persists it to the
// cache store for cold restarts.
func (r *Resolver) publish(snap *catalog.Snapshot, persist bool) {
	r.snapshot.Store(snap)
	if !persist {
		return
	}
	if blob, err := snap.Encode(); err == nil {
		r.store.Set(cache.KeyCatalog, blob, r.config.SnapshotTTL)
	} else {
		r.logger.Warn().Err(err).Msg("Failed to encode snapshot for cache")
	}
}

// IsNotFound reports whether err is the quiet not-found outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}

// buildGroup collapses concurrent builds into one. A custom group
// instead of x/sync/singleflight so the build runs under its own
// context rather than any single caller's.
type buildGroup struct {
	mu   sync.Mutex
	call *buildCall
}

type buildCall struct {
	wg   sync.WaitGroup
	snap *catalog.Snapshot
	err  error
}

func (g *buildGroup) do(fn func() (*catalog.Snapshot, error)) (*catalog.Snapshot, error) {
	g.mu.Lock()
	if c := g.call; c != nil {
		g.mu.Unlock()
		c.wg.Wait()
		return c.snap, c.err
	}
	c := &buildCall{}
	c.wg.Add(1)
	g.call = c
	g.mu.Unlock()

	c.snap, c.err = fn()

	g.mu.Lock()
	g.call = nil
	g.mu.Unlock()
	c.wg.Done()

	return c.snap, c.err
}
