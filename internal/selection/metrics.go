package selection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezcode_selection_mutations_total",
			Help: "Total number of applied selection set mutations by set and operation.",
		},
		[]string{"set", "op"},
	)

	capacityRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezcode_selection_capacity_rejections_total",
			Help: "Total number of additions rejected because the set was full.",
		},
		[]string{"set"},
	)

	persistFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezcode_selection_persist_failures_total",
			Help: "Total number of failed selection set reads or writes against storage.",
		},
		[]string{"set", "op"},
	)
)
