// Package scheduler runs the metric aggregation jobs on a fixed calendar
// cadence, independent of request traffic.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hallgrim/verdandi/internal/telemetry"
)

// Job is a scheduled unit of work. A returned error marks the run failed;
// it is logged and counted, never propagated.
type Job func(ctx context.Context) error

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a scheduler whose jobs recover from panics, so a failing run
// can neither crash the host process nor block the next firing.
func New(logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		logger: logger,
	}
}

// Schedule registers a job under the given cron spec.
func (s *Scheduler) Schedule(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.run(name, job)
	})
	if err != nil {
		return err
	}

	s.logger.Info("scheduled job", "job", name, "schedule", spec)
	return nil
}

// RunNow executes a job outside its schedule, with the same failure isolation.
// Used for re-triggering the monthly churn computation on demand.
func (s *Scheduler) RunNow(name string, job Job) {
	s.run(name, job)
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop gracefully stops the scheduler. The returned context is done when all
// in-flight jobs have completed.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()

	if telemetry.Business != nil {
		telemetry.Business.JobRuns.WithLabelValues(name).Inc()
	}

	if err := job(context.Background()); err != nil {
		s.logger.Error("scheduled job failed", "job", name, "error", err)
		if telemetry.Business != nil {
			telemetry.Business.JobFailures.WithLabelValues(name).Inc()
		}
		return
	}

	duration := time.Since(start)
	s.logger.Info("scheduled job completed", "job", name, "duration", duration)

	if telemetry.Business != nil {
		telemetry.Business.JobDuration.WithLabelValues(name).Observe(duration.Seconds())
	}
}
