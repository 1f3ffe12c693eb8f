package cache

import (
	"github.com/jmgilman/go/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Lookup results recorded by Metrics.
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultStale   = "stale"
	ResultRefresh = "refresh"
	ResultBypass  = "bypass"
	// ResultStaleServed counts stale entries served after a failed refresh.
	ResultStaleServed = "stale_served"
)

// Metrics tracks cache behavior with Prometheus collectors.
// Labels use the dataset name ("streets"), never the full key, so
// cardinality stays bounded by the number of datasets.
type Metrics struct {
	lookups *prometheus.CounterVec
	fetches *prometheus.CounterVec
	corrupt *prometheus.CounterVec
	exports *prometheus.CounterVec
}

// NewMetrics creates the cache collectors and registers them with reg.
// A nil reg leaves the collectors unregistered; they still count.
// Collectors already registered by another client are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "econt",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by dataset and result.",
		}, []string{"dataset", "result"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "econt",
			Subsystem: "cache",
			Name:      "fetches_total",
			Help:      "API fetches performed by the cache by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		corrupt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "econt",
			Subsystem: "cache",
			Name:      "corrupt_entries_total",
			Help:      "Stored entries found unreadable and treated as missing.",
		}, []string{"dataset"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "econt",
			Subsystem: "cache",
			Name:      "exports_total",
			Help:      "Bulk exports by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		m.lookups = register(reg, m.lookups)
		m.fetches = register(reg, m.fetches)
		m.corrupt = register(reg, m.corrupt)
		m.exports = register(reg, m.exports)
	}
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

// RecordLookup records the result of a lookup for key.
func (m *Metrics) RecordLookup(key, result string) {
	m.lookups.WithLabelValues(datasetName(key), result).Inc()
}

// RecordFetch records an API fetch for key.
func (m *Metrics) RecordFetch(key string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.fetches.WithLabelValues(datasetName(key), outcome).Inc()
}

// RecordCorrupt records a corrupt entry found for key.
func (m *Metrics) RecordCorrupt(key string) {
	m.corrupt.WithLabelValues(datasetName(key)).Inc()
}

// RecordExport records the outcome of a bulk export.
func (m *Metrics) RecordExport(err error) {
	outcome := "complete"
	if err != nil {
		outcome = "aborted"
	}
	m.exports.WithLabelValues(outcome).Inc()
}
