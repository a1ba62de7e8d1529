package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultApplied  = "applied"
	resultStale    = "stale"
	resultRejected = "rejected"
)

var (
	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collabmd_connections",
		Help: "Open websocket connections",
	})

	documentsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collabmd_documents_open",
		Help: "Documents currently held in memory",
	})

	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collabmd_updates_total",
		Help: "Client updates by result",
	}, []string{"result"})

	applyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "collabmd_update_apply_seconds",
		Help:    "Time to rebase and apply one client update",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10us to ~80ms
	})

	snapshotErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collabmd_snapshot_errors_total",
		Help: "Failed snapshot saves",
	})
)
