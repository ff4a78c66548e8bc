package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	openSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "report_sessions_open",
		Help: "Reports currently held in memory.",
	})

	recomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_recompute_duration_seconds",
		Help:    "Time spent deriving a report from its sheet and overrides.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_exports_total",
		Help: "Rendered report exports by format.",
	}, []string{"format"})
)
