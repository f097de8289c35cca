package resolver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// resolveTotal tracks resolve calls by outcome.
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolver_resolve_total",
		Help: "Total resolve calls by outcome",
	}, []string{"outcome"}) // outcome: hit, fallback_hit, degraded, not_found, error

	// buildDuration tracks how long full index rebuilds take.
	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "resolver_index_build_duration_seconds",
		Help:    "Time taken to rebuild the catalog index",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// buildFailures tracks rebuilds that failed and kept the old index.
	buildFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolver_index_build_failures_total",
		Help: "Total index rebuilds that failed",
	})

	// skippedRows tracks malformed rows dropped during rebuilds.
	skippedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolver_skipped_rows_total",
		Help: "Total malformed rows skipped during index rebuilds",
	}, []string{"kind"}) // kind: catalog, schedule

	// snapshotProducts reports the size of the published index.
	snapshotProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "resolver_snapshot_products",
		Help: "Number of products in the published catalog snapshot",
	})

	// snapshotShops reports how many shops have supplier schedules.
	snapshotShops = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "resolver_snapshot_shops_with_schedules",
		Help: "Number of shops with a supplier schedule table in the published snapshot",
	})
)

func observeBuild(start time.Time, catalogSkipped, scheduleSkipped, products, shops int) {
	buildDuration.Observe(time.Since(start).Seconds())
	skippedRows.WithLabelValues("catalog").Add(float64(catalogSkipped))
	skippedRows.WithLabelValues("schedule").Add(float64(scheduleSkipped))
	snapshotProducts.Set(float64(products))
	snapshotShops.Set(float64(shops))
}
