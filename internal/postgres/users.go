package postgres

import (
	"context"

	"github.com/hallgrim/verdandi/internal/domain"
)

// UpsertUser creates a user by email or refreshes name and gateway customer
// reference when the email already exists. Retried signups hit the update arm.
func (s *Store) UpsertUser(ctx context.Context, params domain.UpsertUserParams) (*domain.User, error) {
	query := `
		INSERT INTO users (email, name, razorpay_customer_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			razorpay_customer_id = EXCLUDED.razorpay_customer_id,
			updated_at = NOW()
		RETURNING id, email, name, razorpay_customer_id, created_at, updated_at
	`

	var u domain.User
	err := s.db.QueryRow(ctx, query, params.Email, params.Name, params.RazorpayCustomerID).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.RazorpayCustomerID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, domain.Internal(err, "user.upsert", "failed to upsert user")
	}
	return &u, nil
}
