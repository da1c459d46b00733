package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "moodbuddy",
		Subsystem: "state",
		Name:      "store_entries",
		Help:      "Entries currently held in the cache.",
	})

	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moodbuddy",
		Subsystem: "state",
		Name:      "stats_refresh_total",
		Help:      "Stats refreshes by outcome.",
	}, []string{"outcome"})

	staleDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moodbuddy",
		Subsystem: "state",
		Name:      "stale_responses_dropped_total",
		Help:      "Responses discarded because their session had ended.",
	}, []string{"op"})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moodbuddy",
		Subsystem: "state",
		Name:      "session_transitions_total",
		Help:      "Session gate transitions by target state.",
	}, []string{"to"})

	forcedLogoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "moodbuddy",
		Subsystem: "state",
		Name:      "forced_logouts_total",
		Help:      "Sessions ended by an authorization failure.",
	})
)
