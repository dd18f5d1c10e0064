package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	verdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerberus_verdicts_total",
			Help: "Total verdicts issued, by label and deciding layer",
		},
		[]string{"label", "source"},
	)
	layerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cerberus_layer_duration_seconds",
			Help:    "Time spent in each pipeline layer",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 2.5, 5},
		},
		[]string{"layer"},
	)
	raceOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerberus_analysis_race_total",
			Help: "Analysis race outcomes by winner",
		},
		[]string{"winner"},
	)
	feedRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerberus_feed_refresh_total",
			Help: "Threat feed refresh attempts by feed and outcome",
		},
		[]string{"feed", "outcome"},
	)
	feedEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cerberus_feed_entries",
			Help: "Entries currently loaded per list",
		},
		[]string{"feed"},
	)
	personalCacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerberus_personal_cache_events_total",
			Help: "Personal cache promotions and evictions",
		},
		[]string{"event"},
	)
)

var (
	initOnce    sync.Once
	initialized bool
)

// Init registers the pipeline metrics. Must be called once at startup.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(verdictsTotal, layerDuration, raceOutcomes, feedRefreshes, feedEntries, personalCacheEvents)
		initialized = true
	})
}

// RecordVerdict counts one issued verdict.
func RecordVerdict(label, source string) {
	if !initialized {
		return
	}
	verdictsTotal.WithLabelValues(label, source).Inc()
}

// ObserveLayer records time spent in one pipeline layer.
func ObserveLayer(layer string, d time.Duration) {
	if !initialized {
		return
	}
	layerDuration.WithLabelValues(layer).Observe(d.Seconds())
}

// RecordRace counts one analysis race outcome.
func RecordRace(winner string) {
	if !initialized {
		return
	}
	raceOutcomes.WithLabelValues(winner).Inc()
}

// RecordFeedRefresh counts one feed refresh attempt.
func RecordFeedRefresh(feed, outcome string) {
	if !initialized {
		return
	}
	feedRefreshes.WithLabelValues(feed, outcome).Inc()
}

// SetFeedEntries reports the current size of a list.
func SetFeedEntries(feed string, n int) {
	if !initialized {
		return
	}
	feedEntries.WithLabelValues(feed).Set(float64(n))
}

// RecordPersonalCacheEvent counts a promotion or eviction.
func RecordPersonalCacheEvent(event string) {
	if !initialized {
		return
	}
	personalCacheEvents.WithLabelValues(event).Inc()
}
