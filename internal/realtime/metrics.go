package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ezcode_realtime_connected_clients",
		Help: "Number of connected realtime clients.",
	})

	messagesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ezcode_realtime_messages_sent_total",
		Help: "Total number of messages queued to realtime clients.",
	})

	messagesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ezcode_realtime_messages_dropped_total",
		Help: "Total number of events dropped because the publish queue was full.",
	})
)
