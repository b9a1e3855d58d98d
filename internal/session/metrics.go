package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ezcode_sessions_created_total",
		Help: "Total number of sessions started.",
	})

	sessionsRestoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ezcode_sessions_restored_total",
		Help: "Total number of sessions reattached from storage.",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ezcode_sessions_in_memory",
		Help: "Number of sessions currently held in memory.",
	})
)
