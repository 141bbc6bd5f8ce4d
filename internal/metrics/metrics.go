package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	supervisorStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alfred",
			Subsystem: "supervisor",
			Name:      "starts_total",
			Help:      "Number of successful supervised process starts.",
		}, []string{"name"},
	)
	supervisorStartFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alfred",
			Subsystem: "supervisor",
			Name:      "start_failures_total",
			Help:      "Number of supervised process spawn failures.",
		}, []string{"name"},
	)
	supervisorStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alfred",
			Subsystem: "supervisor",
			Name:      "stops_total",
			Help:      "Number of completed stops (graceful or kill).",
		}, []string{"name"},
	)
	supervisorKills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alfred",
			Subsystem: "supervisor",
			Name:      "kills_total",
			Help:      "Number of stops that escalated to SIGKILL.",
		}, []string{"name"},
	)
	probeResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alfred",
			Subsystem: "probe",
			Name:      "results_total",
			Help:      "Health probe outcomes by result class.",
		}, []string{"result"},
	)
	serviceUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "alfred",
			Subsystem: "service",
			Name:      "up",
			Help:      "Whether the service was running at the last status collection (1 = running).",
		}, []string{"service"},
	)
	collectDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "alfred",
			Subsystem: "service",
			Name:      "collect_duration_seconds",
			Help:      "Duration of a full status collection pass.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		supervisorStarts, supervisorStartFailures, supervisorStops, supervisorKills,
		probeResults, serviceUp, collectDuration,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncStart(name string) {
	if regOK.Load() {
		supervisorStarts.WithLabelValues(name).Inc()
	}
}

func IncStartFailure(name string) {
	if regOK.Load() {
		supervisorStartFailures.WithLabelValues(name).Inc()
	}
}

func IncStop(name string) {
	if regOK.Load() {
		supervisorStops.WithLabelValues(name).Inc()
	}
}

func IncKill(name string) {
	if regOK.Load() {
		supervisorKills.WithLabelValues(name).Inc()
	}
}

// ObserveProbe records one probe outcome; result is "success", "timeout",
// "unreachable" or "status".
func ObserveProbe(result string) {
	if regOK.Load() {
		probeResults.WithLabelValues(result).Inc()
	}
}

func SetServiceUp(service string, up bool) {
	if regOK.Load() {
		var v float64
		if up {
			v = 1
		}
		serviceUp.WithLabelValues(service).Set(v)
	}
}

func ObserveCollect(seconds float64) {
	if regOK.Load() {
		collectDuration.Observe(seconds)
	}
}
