package postgres

import (
	"context"
	"errors"

	"github.com/hallgrim/verdandi/internal/domain"
	"github.com/jackc/pgx/v5"
)

// GetPlan returns a plan by local id.
func (s *Store) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	query := `
		SELECT id, razorpay_plan_id, price_cents, billing_interval, created_at
		FROM plans
		WHERE id = $1
	`

	var p domain.Plan
	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.RazorpayPlanID,
		&p.PriceCents,
		&p.Interval,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("plan.get", "plan", id)
		}
		return nil, domain.Internal(err, "plan.get", "failed to load plan")
	}
	return &p, nil
}
