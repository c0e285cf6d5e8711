package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestScheduler_Schedule(t *testing.T) {
	s := newTestScheduler()

	err := s.Schedule("daily_metrics", "0 1 * * *", func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	err = s.Schedule("monthly_churn", "0 2 1 * *", func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestScheduler_RejectsInvalidSpec(t *testing.T) {
	s := newTestScheduler()

	err := s.Schedule("broken", "not a cron spec", func(ctx context.Context) error {
		return nil
	})
	assert.Error(t, err)
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler()

	ran := false
	s.RunNow("daily_metrics", func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.True(t, ran)
}

func TestScheduler_RunNow_FailureIsolated(t *testing.T) {
	s := newTestScheduler()

	// A failing run returns its error to the log, not the caller.
	s.RunNow("daily_metrics", func(ctx context.Context) error {
		return errors.New("database unavailable")
	})

	// A subsequent run is unaffected.
	ran := false
	s.RunNow("daily_metrics", func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.True(t, ran)
}

func TestScheduler_StopWaitsForJobs(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.Schedule("noop", "0 0 1 1 *", func(ctx context.Context) error {
		return nil
	}))

	s.Start()
	ctx := s.Stop()

	select {
	case <-ctx.Done():
	default:
		// No job is in flight; the context must already be done or complete
		// immediately.
		<-ctx.Done()
	}
}
