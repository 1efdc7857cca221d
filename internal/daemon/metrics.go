package daemon

import (
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// runState is the shared record of the last reconciliation run. It is owned
// by the Runner and read concurrently by the metrics HTTP handler, so every
// access goes through the mutex.
type runState struct {
	mu         sync.Mutex
	lastStart  time.Time
	hasRun     bool
	lastOK     bool
	hasOutcome bool
}

// markStart records the wall-clock start of a run.
func (s *runState) markStart(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastStart = now
	s.hasRun = true
}

// markOutcome records whether the run succeeded.
func (s *runState) markOutcome(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOK = ok
	s.hasOutcome = true
}

// secondsSinceLastRun reports the staleness gauge value: seconds since the
// last run started, or NaN before the first run ever executes.
func (s *runState) secondsSinceLastRun(now time.Time) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasRun {
		return math.NaN()
	}
	return math.Max(0, now.Sub(s.lastStart).Seconds())
}

// statusValue reports the status gauge value: 1 for success, 0 for failure
// or before any run has completed.
func (s *runState) statusValue() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasOutcome && s.lastOK {
		return 1
	}
	return 0
}

// newMetricsRegistry builds a registry exposing the two liveness gauges
// backed by the given state. A dedicated registry keeps the daemon's metrics
// isolated from any default-registry collectors.
func newMetricsRegistry(state *runState, now func() time.Time) *prometheus.Registry {
	registry := prometheus.NewRegistry()

	registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ytsprint_cron_seconds",
			Help: "Seconds since last cron run",
		},
		func() float64 { return state.secondsSinceLastRun(now()) },
	))

	registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ytsprint_cron_status",
			Help: "Last cron run status: 1=success, 0=failure",
		},
		state.statusValue,
	))

	return registry
}
