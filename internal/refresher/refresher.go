// Package refresher periodically rebuilds the catalog index in the
// background so chat sessions keep hitting a warm snapshot.
package refresher

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Refreshable is the slice of the resolver the refresher drives.
type Refreshable interface {
	RefreshNow(ctx context.Context) error
}

// Refresher runs periodic index refreshes. Failures are logged and the
// previous snapshot retained; the next tick tries again.
type Refresher struct {
	target   Refreshable
	interval time.Duration
	logger   zerolog.Logger
	stopChan chan struct{}
}

// New creates a refresher ticking at the given interval.
func New(target Refreshable, interval time.Duration) *Refresher {
	return &Refresher{
		target:   target,
		interval: interval,
		logger:   log.With().Str("component", "refresher").Logger(),
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic refresh loop. It blocks until the context
// is cancelled or Stop is called, so run it in a goroutine.
func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Msg("Starting catalog refresher")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Catalog refresher stopping (context cancelled)")
			return
		case <-r.stopChan:
			r.logger.Info().Msg("Catalog refresher stopping (stop signal)")
			return
		case <-ticker.C:
			r.refreshOnce(ctx)
		}
	}
}

// Stop signals the refresher to stop.
func (r *Refresher) Stop() {
	close(r.stopChan)
}

func (r *Refresher) refreshOnce(ctx context.Context) {
	start := time.Now()
	if err := r.target.RefreshNow(ctx); err != nil {
		r.logger.Error().Err(err).Msg("Scheduled refresh failed, previous index retained")
		return
	}
	r.logger.Info().Dur("took", time.Since(start)).Msg("Scheduled refresh completed")
}
