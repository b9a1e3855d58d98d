package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var authAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ezcode_auth_token_verifications_total",
		Help: "Total number of bearer token checks by result.",
	},
	[]string{"result"},
)
