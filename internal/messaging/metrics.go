package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezcode_submission_events_published_total",
			Help: "Total number of submission events published to RabbitMQ.",
		},
		[]string{"event_type", "status"},
	)
	consumedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezcode_submission_events_consumed_total",
			Help: "Total number of submission events consumed from RabbitMQ.",
		},
		[]string{"event_type", "status"},
	)
)
