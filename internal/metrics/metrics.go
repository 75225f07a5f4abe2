package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProbeSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storecheck_probe_steps_total",
			Help: "Total number of probe steps executed, by step and outcome",
		},
		[]string{"step", "outcome"}, // outcome: "ok" or the failure kind
	)

	ProbeStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storecheck_probe_step_duration_seconds",
			Help:    "Duration of probe steps in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)

	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storecheck_runs_total",
			Help: "Total number of complete probe runs, by result",
		},
		[]string{"result"}, // "healthy" or "unhealthy"
	)

	LastRunHealthy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storecheck_last_run_healthy",
			Help: "Whether the most recent probe run was healthy (1) or not (0)",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storecheck_notifications_total",
			Help: "Total number of alert notifications, by kind and result",
		},
		[]string{"kind", "result"},
	)
)

func ObserveStep(step, outcome string, d time.Duration) {
	ProbeSteps.WithLabelValues(step, outcome).Inc()
	ProbeStepDuration.WithLabelValues(step).Observe(d.Seconds())
}

func ObserveRun(healthy bool) {
	if healthy {
		Runs.WithLabelValues("healthy").Inc()
		LastRunHealthy.Set(1)
		return
	}
	Runs.WithLabelValues("unhealthy").Inc()
	LastRunHealthy.Set(0)
}
