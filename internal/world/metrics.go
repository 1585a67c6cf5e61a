package world

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the prometheus collectors of a Manager.
type Metrics struct {
	loads    *prometheus.CounterVec
	saves    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	size     prometheus.Histogram
	loaded   prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slime",
			Name:      "world_loads_total",
			Help:      "World loads by result.",
		}, []string{"result"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slime",
			Name:      "world_saves_total",
			Help:      "World saves by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "slime",
			Name:      "world_operation_seconds",
			Help:      "Time spent loading and saving worlds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"operation"}),
		size: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "slime",
			Name:      "world_size_bytes",
			Help:      "Size of encoded worlds.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		loaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "slime",
			Name:      "worlds_loaded",
			Help:      "Worlds currently held by the manager.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.loads, m.saves, m.duration, m.size, m.loaded} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
