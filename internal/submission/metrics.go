package submission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezcode_submission_records_total",
			Help: "Total number of submission attempts by outcome.",
		},
		[]string{"result"},
	)
	reviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ezcode_submission_reviews_total",
			Help: "Total number of moderation decisions.",
		},
		[]string{"status"},
	)
)
