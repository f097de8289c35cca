// Package catalog builds the in-memory lookup index from raw backing
// store rows: a (article, shop) → product map plus per-shop supplier
// schedule tables.
package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/shopbot/catalog-service/internal/source"
	"github.com/shopbot/catalog-service/internal/types"
)

// BuilderConfig tunes a Builder.
type BuilderConfig struct {
	// FetchConcurrency bounds parallel schedule sheet fetches.
	FetchConcurrency int
	// FetchTimeout bounds each backing store read, independent of the
	// caller's context.
	FetchTimeout time.Duration
}

// DefaultBuilderConfig returns settings suited to a shared sheet backend.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		FetchConcurrency: 4,
		FetchTimeout:     30 * time.Second,
	}
}

// Builder turns raw rows into immutable snapshots. Building is never
// incremental: every Build pulls the full catalog and every shop's
// schedule sheet.
type Builder struct {
	src    source.Source
	config BuilderConfig
	logger zerolog.Logger
}

// NewBuilder creates a builder over the given source.
func NewBuilder(src source.Source, config BuilderConfig) *Builder {
	if config.FetchConcurrency <= 0 {
		config.FetchConcurrency = DefaultBuilderConfig().FetchConcurrency
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultBuilderConfig().FetchTimeout
	}
	return &Builder{
		src:    src,
		config: config,
		logger: log.With().Str("component", "catalog_builder").Logger(),
	}
}

// Source returns the backing source the builder reads from.
func (b *Builder) Source() source.Source {
	return b.src
}

// Build pulls every catalog row and every per-shop schedule sheet and
// folds them into a new snapshot. A failed catalog fetch fails the
// build; a failed schedule fetch only leaves that shop's table absent.
// Malformed rows are skipped and counted, never fatal.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	catalogCtx, cancel := context.WithTimeout(ctx, b.config.FetchTimeout)
	defer cancel()

	rows, err := b.src.FetchCatalogRows(catalogCtx)
	if err != nil {
		return nil, &types.SourceUnavailableError{Op: "catalog fetch", Err: err}
	}

	snap := &Snapshot{
		Products:  make(map[types.Key]types.Product, len(rows)),
		Schedules: make(map[string]map[string]types.SupplierSchedule),
		BuiltAt:   time.Now(),
	}

	shopSet := make(map[string]bool)
	for _, row := range rows {
		product, ok := parseProduct(row)
		if !ok {
			snap.SkippedCatalogRows++
			continue
		}
		snap.Products[types.Key{Article: product.Article, Shop: product.Shop}] = product
		shopSet[product.Shop] = true
	}
	if snap.SkippedCatalogRows > 0 {
		b.logger.Warn().
			Int("skipped", snap.SkippedCatalogRows).
			Int("kept", len(snap.Products)).
			Msg("Skipped malformed catalog rows")
	}

	shops := make([]string, 0, len(shopSet))
	for shop := range shopSet {
		shops = append(shops, shop)
	}
	sort.Strings(shops)

	skippedByShop := b.loadSchedules(ctx, shops, snap)
	for _, n := range skippedByShop {
		snap.SkippedScheduleRows += n
	}

	b.logger.Info().
		Int("products", len(snap.Products)).
		Int("shops", len(shops)).
		Int("shops_with_schedules", len(snap.Schedules)).
		Msg("Built catalog snapshot")
	return snap, nil
}

// loadSchedules fetches every shop's schedule sheet through a bounded
// worker pool. Results land in snap.Schedules under a mutex; the
// errgroup never carries an error because per-shop failures are
// tolerated.
func (b *Builder) loadSchedules(ctx context.Context, shops []string, snap *Snapshot) map[string]int {
	var mu sync.Mutex
	skipped := make(map[string]int, len(shops))

	sem := semaphore.NewWeighted(int64(b.config.FetchConcurrency))
	g, gctx := errgroup.WithContext(ctx)

	for _, shop := range shops {
		shop := shop
		if err := sem.Acquire(gctx, 1); err != nil {
			b.logger.Warn().Err(err).Str("shop", shop).Msg("Skipping schedule fetch")
			continue
		}
		g.Go(func() error {
			defer sem.Release(1)

			fetchCtx, cancel := context.WithTimeout(gctx, b.config.FetchTimeout)
			defer cancel()

			rows, err := b.src.FetchScheduleRows(fetchCtx, shop)
			if err != nil {
				b.logger.Warn().Err(err).Str("shop", shop).
					Msg("Schedule sheet unavailable, shop will have no supplier data")
				return nil
			}

			table := make(map[string]types.SupplierSchedule, len(rows))
			dropped := 0
			for _, row := range rows {
				sched, ok := parseSchedule(row)
				if !ok {
					dropped++
					continue
				}
				table[sched.SupplierCode] = sched
			}

			mu.Lock()
			snap.Schedules[shop] = table
			skipped[shop] = dropped
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return skipped
}
