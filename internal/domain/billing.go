package domain

import (
	"context"
	"time"
)

// Subscription statuses as written to the subscriptions table.
// The provisioning service sets StatusActive on creation; afterwards only the
// webhook ingestion path may change a subscription's status.
const (
	StatusActive   = "active"
	StatusCanceled = "canceled"
	StatusPastDue  = "past_due"
)

// User is a billing account holder. Email is unique; at most one subscription
// per user is enforced at the application level by the provisioning service.
type User struct {
	ID                 string
	Email              string
	Name               string
	RazorpayCustomerID string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Plan is immutable reference data describing a purchasable plan.
// PriceCents is in minor currency units.
type Plan struct {
	ID             string
	RazorpayPlanID string
	PriceCents     int64
	Interval       string
	CreatedAt      time.Time
}

// Subscription links a User to a Plan. RazorpaySubscriptionID is the join key
// used by webhook ingestion to locate the record; local state is the source of
// truth for which subscriptions are ours.
type Subscription struct {
	ID                     string
	UserID                 string
	PlanID                 string
	RazorpaySubscriptionID string
	Status                 string
	CurrentPeriodEnd       time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Metric is one row per calendar date. MRRCents and ActiveCustomers are set by
// the daily job, ChurnRate by the monthly job; neither job overwrites the
// other's columns.
type Metric struct {
	Date            time.Time `json:"date"`
	MRRCents        int64     `json:"mrr"`
	ActiveCustomers int       `json:"activeCustomers"`
	ChurnRate       float64   `json:"churnRate"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

// UpsertUserParams carries the fields written when creating or refreshing a
// user by email. Retried signups update name and customer reference in place.
type UpsertUserParams struct {
	Email              string
	Name               string
	RazorpayCustomerID string
}

// CreateSubscriptionParams carries the fields for a new local subscription row.
type CreateSubscriptionParams struct {
	UserID                 string
	PlanID                 string
	RazorpaySubscriptionID string
	Status                 string
	CurrentPeriodEnd       time.Time
}

// UpdateSubscriptionStatusParams applies a webhook-driven state transition.
// CurrentPeriodEnd is only written when non-nil; status is always set-to-value
// so duplicate deliveries converge on the same row state.
type UpdateSubscriptionStatusParams struct {
	RazorpaySubscriptionID string
	Status                 string
	CurrentPeriodEnd       *time.Time
}

// UserStore persists users.
type UserStore interface {
	// UpsertUser creates a user by email or updates name and customer
	// reference when the email already exists.
	UpsertUser(ctx context.Context, params UpsertUserParams) (*User, error)
}

// PlanStore reads plan reference data.
type PlanStore interface {
	// GetPlan returns a plan by local id. Returns ENOTFOUND when absent.
	GetPlan(ctx context.Context, id string) (*Plan, error)
}

// SubscriptionStore persists subscriptions.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error)

	// GetSubscriptionByEmail returns the subscription owned by the user with
	// the given email, or ENOTFOUND when the user has none.
	GetSubscriptionByEmail(ctx context.Context, email string) (*Subscription, error)

	// GetSubscriptionByProviderID looks a subscription up by the gateway's
	// subscription id. Returns ENOTFOUND when we do not hold the record.
	GetSubscriptionByProviderID(ctx context.Context, providerID string) (*Subscription, error)

	UpdateSubscriptionStatus(ctx context.Context, params UpdateSubscriptionStatusParams) error
}

// MetricStore persists metric snapshots and serves the aggregation queries.
type MetricStore interface {
	// CountActiveSubscriptions counts subscriptions with status "active".
	CountActiveSubscriptions(ctx context.Context) (int, error)

	// SumActiveMRRCents sums the plan price of every active subscription.
	SumActiveMRRCents(ctx context.Context) (int64, error)

	// CountCanceledInWindow counts subscriptions canceled with updated_at
	// inside [start, end].
	CountCanceledInWindow(ctx context.Context, start, end time.Time) (int, error)

	// CountActiveAtStart estimates subscriptions active at window start:
	// currently active, or canceled within [start, end], and created before
	// start. Reactivations inside the window are undercounted; there is no
	// historical status log to do better.
	CountActiveAtStart(ctx context.Context, start, end time.Time) (int, error)

	// UpsertDailyMetric writes mrr and active customer count for a date,
	// leaving churn_rate untouched on existing rows.
	UpsertDailyMetric(ctx context.Context, date time.Time, mrrCents int64, activeCustomers int) error

	// UpsertChurnMetric writes churn_rate for a date, leaving mrr and
	// active_customers untouched on existing rows.
	UpsertChurnMetric(ctx context.Context, date time.Time, churnRate float64) error

	// LatestMetric returns the newest metric row by date.
	// Returns ENOTFOUND when no metrics exist.
	LatestMetric(ctx context.Context) (*Metric, error)

	// MetricsSince returns metric rows with date >= since, ascending by date.
	MetricsSince(ctx context.Context, since time.Time) ([]Metric, error)
}
