package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	RatesCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "candlescope",
			Subsystem: "rates_cache",
			Name:      "lookups_total",
			Help:      "Rates cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	WarmerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "candlescope",
			Subsystem: "warmer",
			Name:      "runs_total",
			Help:      "Cache warmer runs by outcome (ok, partial, skipped)",
		},
		[]string{"outcome"},
	)

	WarmerDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "candlescope",
			Subsystem: "warmer",
			Name:      "duration_seconds",
			Help:      "Time spent prefetching all pairs",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(RatesCacheLookups, WarmerRuns, WarmerDuration)
	})
}
