package wizard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fieldUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ezcode_wizard_field_updates_total",
		Help: "Total number of draft field writes.",
	})

	draftsRestoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ezcode_wizard_drafts_restored_total",
		Help: "Total number of drafts restored from storage.",
	})

	stepTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezcode_wizard_step_transitions_total",
			Help: "Wizard navigation attempts by direction and outcome.",
		},
		[]string{"direction", "outcome"},
	)

	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezcode_wizard_submissions_total",
			Help: "Submission attempts by outcome.",
		},
		[]string{"outcome"},
	)

	persistFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezcode_wizard_persist_failures_total",
			Help: "Failed draft storage operations by operation.",
		},
		[]string{"op"},
	)
)
