package difftool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// toolDuration tracks subprocess latency by tool and outcome
	toolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wicky_difftool_duration_seconds",
		Help:    "External text tool duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"tool", "outcome"})

	// toolErrors counts tool failures that are not conflicts
	toolErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wicky_difftool_errors_total",
		Help: "Total external text tool failures by tool",
	}, []string{"tool"})
)
