package postgres

import (
	"context"
	"errors"

	"github.com/hallgrim/verdandi/internal/domain"
	"github.com/jackc/pgx/v5"
)

const subscriptionColumns = `
	id, user_id, plan_id, razorpay_subscription_id, status,
	current_period_end, created_at, updated_at
`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PlanID,
		&sub.RazorpaySubscriptionID,
		&sub.Status,
		&sub.CurrentPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription inserts a new local subscription row.
func (s *Store) CreateSubscription(ctx context.Context, params domain.CreateSubscriptionParams) (*domain.Subscription, error) {
	query := `
		INSERT INTO subscriptions (user_id, plan_id, razorpay_subscription_id, status, current_period_end)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + subscriptionColumns

	sub, err := scanSubscription(s.db.QueryRow(ctx, query,
		params.UserID,
		params.PlanID,
		params.RazorpaySubscriptionID,
		params.Status,
		params.CurrentPeriodEnd,
	))
	if err != nil {
		return nil, domain.Internal(err, "subscription.create", "failed to insert subscription")
	}
	return sub, nil
}

// GetSubscriptionByEmail returns the subscription owned by the user with the
// given email. Used by provisioning to enforce one subscription per user.
func (s *Store) GetSubscriptionByEmail(ctx context.Context, email string) (*domain.Subscription, error) {
	query := `
		SELECT s.id, s.user_id, s.plan_id, s.razorpay_subscription_id, s.status,
			s.current_period_end, s.created_at, s.updated_at
		FROM subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE u.email = $1
	`

	sub, err := scanSubscription(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("subscription.get_by_email", "subscription", email)
		}
		return nil, domain.Internal(err, "subscription.get_by_email", "failed to load subscription")
	}
	return sub, nil
}

// GetSubscriptionByProviderID looks a subscription up by the gateway's
// subscription id. Webhook ingestion uses this as the join key; an unknown id
// means the event is not ours.
func (s *Store) GetSubscriptionByProviderID(ctx context.Context, providerID string) (*domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE razorpay_subscription_id = $1
	`

	sub, err := scanSubscription(s.db.QueryRow(ctx, query, providerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound("subscription.get_by_provider_id", "subscription", providerID)
		}
		return nil, domain.Internal(err, "subscription.get_by_provider_id", "failed to load subscription")
	}
	return sub, nil
}

// UpdateSubscriptionStatus applies a webhook-driven state transition.
// Status is set-to-value; current_period_end is only written when provided.
// Duplicate deliveries of the same event converge on the same row state.
func (s *Store) UpdateSubscriptionStatus(ctx context.Context, params domain.UpdateSubscriptionStatusParams) error {
	query := `
		UPDATE subscriptions SET
			status = $2,
			current_period_end = COALESCE($3, current_period_end),
			updated_at = NOW()
		WHERE razorpay_subscription_id = $1
	`

	tag, err := s.db.Exec(ctx, query, params.RazorpaySubscriptionID, params.Status, params.CurrentPeriodEnd)
	if err != nil {
		return domain.Internal(err, "subscription.update_status", "failed to update subscription")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("subscription.update_status", "subscription", params.RazorpaySubscriptionID)
	}
	return nil
}
