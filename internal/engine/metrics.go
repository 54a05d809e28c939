package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for engine builds
type Metrics struct {
	HierarchyBuilds prometheus.Counter
	TimelineBuilds  prometheus.Counter
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	BuildDuration   *prometheus.HistogramVec // labeled by stage: hierarchy, timeline
}

// NewMetrics creates and registers engine metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HierarchyBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laneview_hierarchy_builds_total",
			Help: "Total number of per-namespace hierarchy builds",
		}),
		TimelineBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laneview_timeline_builds_total",
			Help: "Total number of per-lane health timeline builds",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laneview_cache_hits_total",
			Help: "Total number of build results served from cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "laneview_cache_misses_total",
			Help: "Total number of build results not found in cache",
		}),
		BuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "laneview_build_duration_seconds",
			Help:    "Duration of engine build stages",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
	}

	reg.MustRegister(m.HierarchyBuilds, m.TimelineBuilds, m.CacheHits, m.CacheMisses, m.BuildDuration)
	return m
}
