package postgres

import (
	"github.com/hallgrim/verdandi/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements the domain store interfaces using PostgreSQL.
type Store struct {
	db *pgxpool.Pool
}

// Compile-time checks that Store implements the domain store interfaces.
var (
	_ domain.UserStore         = (*Store)(nil)
	_ domain.PlanStore         = (*Store)(nil)
	_ domain.SubscriptionStore = (*Store)(nil)
	_ domain.MetricStore       = (*Store)(nil)
)

// NewStore creates a new Store backed by the given connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}
