package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fieldUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wicky",
		Name:      "field_updates_total",
		Help:      "Field update attempts by outcome (applied, unchanged, rejected, failed).",
	}, []string{"outcome"})

	historyReconstructions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wicky",
		Name:      "history_reconstructions_total",
		Help:      "Historical value reconstructions by source (cache, replay, error).",
	}, []string{"source"})

	historyVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wicky",
		Name:      "history_verifications_total",
		Help:      "History verification results (valid, corrupted, error).",
	}, []string{"result"})
)
