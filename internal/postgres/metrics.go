package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/hallgrim/verdandi/internal/domain"
	"github.com/jackc/pgx/v5"
)

// CountActiveSubscriptions counts subscriptions with status "active".
func (s *Store) CountActiveSubscriptions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE status = $1`,
		domain.StatusActive,
	).Scan(&count)
	if err != nil {
		return 0, domain.Internal(err, "metrics.count_active", "failed to count active subscriptions")
	}
	return count, nil
}

// SumActiveMRRCents sums each active subscription's plan price.
func (s *Store) SumActiveMRRCents(ctx context.Context) (int64, error) {
	query := `
		SELECT COALESCE(SUM(p.price_cents), 0)
		FROM subscriptions s
		JOIN plans p ON p.id = s.plan_id
		WHERE s.status = $1
	`

	var sum int64
	if err := s.db.QueryRow(ctx, query, domain.StatusActive).Scan(&sum); err != nil {
		return 0, domain.Internal(err, "metrics.sum_mrr", "failed to sum MRR")
	}
	return sum, nil
}

// CountCanceledInWindow counts subscriptions canceled with updated_at inside
// [start, end].
func (s *Store) CountCanceledInWindow(ctx context.Context, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM subscriptions
		WHERE status = $1 AND updated_at >= $2 AND updated_at <= $3
	`

	var count int
	if err := s.db.QueryRow(ctx, query, domain.StatusCanceled, start, end).Scan(&count); err != nil {
		return 0, domain.Internal(err, "metrics.count_canceled", "failed to count canceled subscriptions")
	}
	return count, nil
}

// CountActiveAtStart estimates subscriptions active at the window start:
// currently active, or canceled within the window, and created before the
// window start. Without a historical status log this undercounts mid-window
// reactivations.
func (s *Store) CountActiveAtStart(ctx context.Context, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM subscriptions
		WHERE created_at < $3
		AND (
			status = $1
			OR (status = $2 AND updated_at >= $3 AND updated_at <= $4)
		)
	`

	var count int
	err := s.db.QueryRow(ctx, query, domain.StatusActive, domain.StatusCanceled, start, end).Scan(&count)
	if err != nil {
		return 0, domain.Internal(err, "metrics.count_active_at_start", "failed to estimate active subscriptions")
	}
	return count, nil
}

// UpsertDailyMetric writes mrr and active customer count for a date.
// churn_rate is left untouched on existing rows; the monthly job owns it.
func (s *Store) UpsertDailyMetric(ctx context.Context, date time.Time, mrrCents int64, activeCustomers int) error {
	query := `
		INSERT INTO metrics (date, mrr_cents, active_customers, churn_rate)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (date) DO UPDATE SET
			mrr_cents = EXCLUDED.mrr_cents,
			active_customers = EXCLUDED.active_customers,
			updated_at = NOW()
	`

	if _, err := s.db.Exec(ctx, query, date, mrrCents, activeCustomers); err != nil {
		return domain.Internal(err, "metrics.upsert_daily", "failed to upsert daily metric")
	}
	return nil
}

// UpsertChurnMetric writes churn_rate for a date. mrr and active_customers are
// left untouched on existing rows; a missing row is created with zeros in the
// expectation that the daily job already recorded them.
func (s *Store) UpsertChurnMetric(ctx context.Context, date time.Time, churnRate float64) error {
	query := `
		INSERT INTO metrics (date, mrr_cents, active_customers, churn_rate)
		VALUES ($1, 0, 0, $2)
		ON CONFLICT (date) DO UPDATE SET
			churn_rate = EXCLUDED.churn_rate,
			updated_at = NOW()
	`

	if _, err := s.db.Exec(ctx, query, date, churnRate); err != nil {
		return domain.Internal(err, "metrics.upsert_churn", "failed to upsert churn metric")
	}
	return nil
}

// LatestMetric returns the newest metric row by date.
func (s *Store) LatestMetric(ctx context.Context) (*domain.Metric, error) {
	query := `
		SELECT date, mrr_cents, active_customers, churn_rate, created_at, updated_at
		FROM metrics
		ORDER BY date DESC
		LIMIT 1
	`

	var m domain.Metric
	err := s.db.QueryRow(ctx, query).Scan(
		&m.Date,
		&m.MRRCents,
		&m.ActiveCustomers,
		&m.ChurnRate,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("metrics.latest", "metric", "latest")
		}
		return nil, domain.Internal(err, "metrics.latest", "failed to load latest metric")
	}
	return &m, nil
}

// MetricsSince returns metric rows with date >= since, ascending by date for
// charting.
func (s *Store) MetricsSince(ctx context.Context, since time.Time) ([]domain.Metric, error) {
	query := `
		SELECT date, mrr_cents, active_customers, churn_rate, created_at, updated_at
		FROM metrics
		WHERE date >= $1
		ORDER BY date ASC
	`

	rows, err := s.db.Query(ctx, query, since)
	if err != nil {
		return nil, domain.Internal(err, "metrics.since", "failed to query metrics")
	}
	defer rows.Close()

	var metrics []domain.Metric
	for rows.Next() {
		var m domain.Metric
		if err := rows.Scan(&m.Date, &m.MRRCents, &m.ActiveCustomers, &m.ChurnRate, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, domain.Internal(err, "metrics.since", "failed to scan metric")
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "metrics.since", "failed to read metrics")
	}
	return metrics, nil
}
