package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/hallgrim/verdandi/internal/domain"
	"github.com/hallgrim/verdandi/internal/telemetry"
)

// defaultHistoricalDays is the lookback window when the caller does not ask
// for one.
const defaultHistoricalDays = 30

// MetricsService computes and serves the metric snapshots behind the
// dashboard: a daily MRR/active-customer snapshot and a monthly churn rate.
type MetricsService struct {
	store  domain.MetricStore
	logger *slog.Logger

	// now is swapped in tests to pin job windows.
	now func() time.Time
}

// NewMetricsService creates a new MetricsService.
func NewMetricsService(store domain.MetricStore, logger *slog.Logger) *MetricsService {
	return &MetricsService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// CalculateDailyMetrics counts active subscriptions, sums their plan prices
// into MRR, and upserts today's metric row. churn_rate is never written here;
// rerunning on the same day only refreshes mrr and active_customers.
func (s *MetricsService) CalculateDailyMetrics(ctx context.Context) error {
	activeCustomers, err := s.store.CountActiveSubscriptions(ctx)
	if err != nil {
		return err
	}

	mrrCents, err := s.store.SumActiveMRRCents(ctx)
	if err != nil {
		return err
	}

	today := midnight(s.now())
	if err := s.store.UpsertDailyMetric(ctx, today, mrrCents, activeCustomers); err != nil {
		return err
	}

	s.logger.Info("daily metrics stored",
		"date", today.Format("2006-01-02"),
		"mrr_cents", mrrCents,
		"active_customers", activeCustomers,
	)

	if telemetry.Business != nil {
		telemetry.Business.MRRCents.Set(float64(mrrCents))
		telemetry.Business.ActiveCustomers.Set(float64(activeCustomers))
	}

	return nil
}

// CalculateMonthlyChurn computes the previous calendar month's churn rate and
// upserts it onto the metric row keyed by that month's last day. Safe to
// re-trigger at any time: the window is derived from the invocation time.
//
// The denominator is an estimate (currently active, or canceled in-window,
// created before the window) because no historical status log exists;
// subscriptions that churned and reactivated inside the month are undercounted.
func (s *MetricsService) CalculateMonthlyChurn(ctx context.Context) error {
	now := s.now().UTC()
	firstOfCurrentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	windowEnd := firstOfCurrentMonth.Add(-time.Second)
	windowStart := time.Date(windowEnd.Year(), windowEnd.Month(), 1, 0, 0, 0, 0, time.UTC)

	canceled, err := s.store.CountCanceledInWindow(ctx, windowStart, windowEnd)
	if err != nil {
		return err
	}

	activeAtStart, err := s.store.CountActiveAtStart(ctx, windowStart, windowEnd)
	if err != nil {
		return err
	}

	if activeAtStart == 0 {
		// Nothing to divide by; leave the row untouched rather than write 0/0.
		s.logger.Info("no subscriptions eligible at start of previous month, skipping churn",
			"window_start", windowStart.Format("2006-01-02"),
			"window_end", windowEnd.Format("2006-01-02"),
		)
		return nil
	}

	churnRate := float64(canceled) / float64(activeAtStart)
	metricDate := midnight(windowEnd)

	if err := s.store.UpsertChurnMetric(ctx, metricDate, churnRate); err != nil {
		return err
	}

	s.logger.Info("monthly churn stored",
		"date", metricDate.Format("2006-01-02"),
		"canceled", canceled,
		"active_at_start", activeAtStart,
		"churn_rate", churnRate,
	)

	return nil
}

// Latest returns the newest metric snapshot.
func (s *MetricsService) Latest(ctx context.Context) (*domain.Metric, error) {
	return s.store.LatestMetric(ctx)
}

// Historical returns metric rows from the last `days` days, ascending by date
// for charting. Non-positive days falls back to the 30-day default.
func (s *MetricsService) Historical(ctx context.Context, days int) ([]domain.Metric, error) {
	if days <= 0 {
		days = defaultHistoricalDays
	}

	since := midnight(s.now()).AddDate(0, 0, -days)
	return s.store.MetricsSince(ctx, since)
}

// midnight normalizes a timestamp to UTC midnight, the metric row key.
func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
