package logsync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tdee",
		Subsystem: "logsync",
		Name:      "sessions_started_total",
		Help:      "Log subscription sessions started.",
	})

	statesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tdee",
		Subsystem: "logsync",
		Name:      "states_published_total",
		Help:      "Combined log states published to subscribers.",
	})

	feedFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tdee",
			Subsystem: "logsync",
			Name:      "feed_failures_total",
			Help:      "Feed deliveries that reset the working copy.",
		},
		[]string{"feed"},
	)

	estimatorErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tdee",
		Subsystem: "logsync",
		Name:      "estimator_errors_total",
		Help:      "Estimation calls that failed; the recomputation was not published.",
	})
)
