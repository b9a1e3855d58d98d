package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var submitFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ezcode_http_submit_failures_total",
	Help: "Total number of wizard submit requests rejected by the submission service.",
})
