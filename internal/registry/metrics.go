// ABOUTME: Prometheus instrumentation for the collector's mark-and-sweep passes
// ABOUTME: All metrics are optional; a nil Registerer yields a no-op set

package registry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters and histogram the collector updates on every
// Collect call. Build one with NewMetrics; the zero value holds no
// metrics and is not usable.
type Metrics struct {
	collections      prometheus.Counter
	objectsSwept     prometheus.Counter
	bytesReclaimed   prometheus.Counter
	collectDuration  prometheus.Histogram
	liveObjects      prometheus.Gauge
}

// NewMetrics registers the collector's instrumentation with reg. A nil reg
// produces a Metrics value whose updates are silently discarded, so callers
// that don't care about observability can omit a registerer entirely.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		collections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saber_gc_collections_total",
			Help: "Number of mark-and-sweep passes run.",
		}),
		objectsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saber_gc_objects_swept_total",
			Help: "Number of storages freed by sweep.",
		}),
		bytesReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saber_gc_bytes_reclaimed_total",
			Help: "Bytes returned to the memory resource by sweep.",
		}),
		collectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "saber_gc_collect_duration_seconds",
			Help:    "Wall time spent in a single Collect call.",
			Buckets: prometheus.DefBuckets,
		}),
		liveObjects: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "saber_gc_live_objects",
			Help: "Storages currently tracked by the registry.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.collections, m.objectsSwept, m.bytesReclaimed, m.collectDuration, m.liveObjects)
	}
	return m
}
