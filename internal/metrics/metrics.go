package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	sessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "respawn",
			Subsystem: "session",
			Name:      "total",
			Help:      "Number of restart sessions by terminal outcome.",
		}, []string{"outcome"},
	)
	killCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "respawn",
			Subsystem: "session",
			Name:      "kill_cycles_total",
			Help:      "Number of termination cycles issued across all sessions.",
		},
	)
	killedProcesses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "respawn",
			Subsystem: "session",
			Name:      "killed_processes_total",
			Help:      "Number of worker processes signaled for termination.",
		},
	)
	sessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "respawn",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of a restart session.",
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
	for _, c := range []prometheus.Collector{sessions, killCycles, killedProcesses, sessionDuration} {
		if err := r.Register(c); err != nil {
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

// RegisterDefault registers against the default prometheus registry.
func RegisterDefault() error { return Register(prometheus.DefaultRegisterer) }

// Handler exposes the default registry over HTTP.
func Handler() http.Handler { return promhttp.Handler() }

func IncSession(outcome string)       { sessions.WithLabelValues(outcome).Inc() }
func AddKillCycles(n int)             { killCycles.Add(float64(n)) }
func AddKilledProcesses(n int)        { killedProcesses.Add(float64(n)) }
func ObserveDuration(d time.Duration) { sessionDuration.Observe(d.Seconds()) }
