package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/moodbuddy/moodbuddy/client/internal/types"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodbuddy_client",
			Name:      "requests_total",
			Help:      "Calls against the mood service by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	unauthorizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "moodbuddy_client",
			Name:      "unauthorized_total",
			Help:      "Responses that rejected the session's credentials.",
		},
	)
)

// observe records the outcome of op and passes err through.
func observe(op string, err error) error {
	outcome := "ok"
	switch {
	case err == nil:
	case types.IsAuthError(err):
		outcome = "unauthorized"
	case types.IsValidationError(err):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	requestsTotal.WithLabelValues(op, outcome).Inc()
	return err
}
