package billing

import (
	"context"
)

// Provider defines the interface for the payment gateway.
// Implementations wrap the hosted subscription-billing API; tests substitute
// MockProvider.
type Provider interface {
	// CreateCustomer creates a customer record in the gateway.
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// CreateSubscription creates a recurring subscription in the gateway,
	// referencing a gateway plan and customer.
	CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error)

	// VerifyWebhookSignature verifies that a webhook request is authentic.
	// payload must be the exact raw request body bytes.
	VerifyWebhookSignature(payload []byte, signature string, secret string) error
}

// CreateCustomerParams contains parameters for creating a gateway customer.
type CreateCustomerParams struct {
	Email string
	Name  string
}

// Customer represents a gateway customer.
type Customer struct {
	ID    string
	Email string
	Name  string
}

// CreateSubscriptionParams contains parameters for creating a gateway
// subscription. PlanID is the gateway's plan reference, not our local plan id.
type CreateSubscriptionParams struct {
	PlanID     string
	CustomerID string

	// TotalCount is the number of billing cycles to charge.
	TotalCount int

	// Quantity of the plan per cycle.
	Quantity int
}

// Subscription represents a gateway subscription.
type Subscription struct {
	ID     string
	Status string

	// CurrentEnd is the end of the current billing period in epoch seconds.
	// 0 when the gateway omits it (common before the first charge).
	CurrentEnd int64
}
