package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are registered on a server-owned registry so tests and multiple
// servers in one process do not collide.
type metrics struct {
	datasets         prometheus.Gauge
	uploads          *prometheus.CounterVec
	cleans           prometheus.Counter
	chats            *prometheus.CounterVec
	analysisDuration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		datasets: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "bizdata",
			Name:      "datasets_loaded",
			Help:      "Datasets currently held in memory.",
		}),
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizdata",
			Name:      "uploads_total",
			Help:      "Dataset uploads by outcome.",
		}, []string{"outcome"}),
		cleans: f.NewCounter(prometheus.CounterOpts{
			Namespace: "bizdata",
			Name:      "cleans_total",
			Help:      "Datasets cleaned.",
		}),
		chats: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bizdata",
			Name:      "chat_requests_total",
			Help:      "Advisory chat requests by outcome.",
		}, []string{"outcome"}),
		analysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bizdata",
			Name:      "analysis_duration_seconds",
			Help:      "Time spent detecting capabilities and computing statistics.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
}
