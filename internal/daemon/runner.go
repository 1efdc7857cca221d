// Package daemon runs the reconciliation job on a recurring cron schedule
// and exposes liveness gauges over a pull-based metrics endpoint.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

// shutdownTimeout bounds the metrics server's graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Job is one reconciliation pass. A returned error marks the tick failed;
// the daemon keeps running.
type Job func(ctx context.Context) error

// Runner schedules a Job with a five-field cron expression anchored to UTC.
// At most one tick executes at a time: a tick that fires while the previous
// one is still running is delayed until it completes, never run in parallel.
type Runner struct {
	cronSpec    string
	metricsAddr string

	logger *slog.Logger
	state  *runState
	now    func() time.Time
}

// NewRunner creates a Runner for the given cron expression and metrics bind
// address/port. The expression is validated here so a bad schedule fails at
// startup, before any scheduling begins.
func NewRunner(cronSpec, metricsAddr string, metricsPort int, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := cron.ParseStandard(cronSpec); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cronSpec, err)
	}

	return &Runner{
		cronSpec:    cronSpec,
		metricsAddr: net.JoinHostPort(metricsAddr, strconv.Itoa(metricsPort)),
		logger:      logger,
		state:       &runState{},
		now:         time.Now,
	}, nil
}

// runOnce executes one tick: records the start time for the staleness gauge,
// runs the job, and records success or failure. A job error or panic is
// logged and converted to a failure status; it never propagates to the
// scheduler.
func (r *Runner) runOnce(ctx context.Context, job Job) {
	r.state.markStart(r.now())

	log := r.logger.With("run_id", uuid.NewString())
	log.Info("cron tick started")

	ok := false
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("cron job panicked", "panic", rec)
		}
		r.state.markOutcome(ok)
	}()

	if err := job(ctx); err != nil {
		log.Error("cron job failed", "error", err)
		return
	}

	ok = true
	log.Info("cron tick completed")
}

// metricsRouter builds the HTTP surface of the daemon: the Prometheus
// endpoint and a health check.
func (r *Runner) metricsRouter() http.Handler {
	registry := newMetricsRegistry(r.state, r.now)

	router := chi.NewRouter()
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			r.logger.Error("failed to write health check response", "error", err)
		}
	})
	return router
}

// cronLogger adapts the scheduler's log calls to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}

// Start runs the daemon until ctx is cancelled: it brings up the metrics
// endpoint, runs the job once immediately, then follows the cron schedule.
// On cancellation it stops accepting ticks, waits for an in-flight tick to
// finish, and shuts the metrics server down gracefully.
func (r *Runner) Start(ctx context.Context, job Job) error {
	r.logger.Info("starting daemon mode", "cron", r.cronSpec, "timezone", "UTC")

	server := &http.Server{
		Addr:    r.metricsAddr,
		Handler: r.metricsRouter(),
	}

	serverErr := make(chan error, 1)
	go func() {
		r.logger.Info("metrics endpoint listening", "addr", r.metricsAddr, "path", "/metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	scheduler := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.DelayIfStillRunning(cronLogger{log: r.logger})),
	)
	if _, err := scheduler.AddFunc(r.cronSpec, func() {
		r.runOnce(ctx, job)
	}); err != nil {
		// Already validated in NewRunner; kept as a startup guard.
		return fmt.Errorf("failed to schedule job: %w", err)
	}

	// First run happens right away, the schedule governs every run after.
	r.runOnce(ctx, job)

	scheduler.Start()
	r.logger.Info("cron schedule active", "cron", r.cronSpec)

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown requested, stopping scheduler")
	case err := <-serverErr:
		r.logger.Error("metrics server failed", "error", err)
		<-scheduler.Stop().Done()
		return fmt.Errorf("metrics server failed: %w", err)
	}

	// Stop returns a context that completes once in-flight jobs finish.
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("metrics server shutdown failed", "error", err)
		return fmt.Errorf("metrics server shutdown failed: %w", err)
	}

	r.logger.Info("daemon stopped")
	return nil
}
