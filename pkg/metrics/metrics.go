package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExtractionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "extraction_runs_total",
		Help: "Total number of HTML extraction runs",
	}, []string{"status"})

	RecordsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "records_extracted_total",
		Help: "Total number of candidate records by extraction outcome",
	}, []string{"outcome"})

	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "extraction_duration_seconds",
		Help:    "Duration of the full HTML extraction pipeline",
		Buckets: prometheus.DefBuckets,
	})

	MetricsComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metrics_computations_total",
		Help: "Total number of derived metrics computations",
	}, []string{"status"})

	MetricsComputationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "metrics_computation_duration_seconds",
		Help:    "Duration of derived metrics computations",
		Buckets: prometheus.DefBuckets,
	})

	FxLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_lookups_total",
		Help: "Total number of exchange rate lookups",
	}, []string{"status"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of cache misses",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_sessions",
		Help: "Number of sessions holding a parsed dataset",
	})

	ActiveGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_goroutines",
		Help: "Number of active goroutines",
	})

	MemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "memory_usage_bytes",
		Help: "Current memory usage in bytes",
	})
)

func RecordExtractionRun(status string) {
	ExtractionRuns.WithLabelValues(status).Inc()
}

func RecordExtractedRecords(outcome string, count int) {
	if count > 0 {
		RecordsExtracted.WithLabelValues(outcome).Add(float64(count))
	}
}

func RecordMetricsComputation(status string) {
	MetricsComputations.WithLabelValues(status).Inc()
}

func RecordFxLookup(status string) {
	FxLookups.WithLabelValues(status).Inc()
}

func RecordCacheHit() {
	CacheHits.Inc()
}

func RecordCacheMiss() {
	CacheMisses.Inc()
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
	}
}

func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
