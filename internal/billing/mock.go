package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MockProvider is a mock billing provider for testing.
// Simulates successful gateway flows without calling the Razorpay API.
type MockProvider struct {
	// CreateCustomerFunc allows customizing customer creation behavior
	CreateCustomerFunc func(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// CreateSubscriptionFunc allows customizing subscription creation behavior
	CreateSubscriptionFunc func(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error)

	// VerifyWebhookSignatureFunc allows customizing webhook verification behavior
	VerifyWebhookSignatureFunc func(payload []byte, signature string, secret string) error

	// Customers stores created customers for retrieval
	Customers map[string]*Customer

	// Subscriptions stores created subscriptions for retrieval
	Subscriptions map[string]*Subscription

	// CallLog tracks method calls for test assertions
	CallLog []string
}

// Compile-time check that MockProvider implements Provider.
var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a new mock billing provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Customers:     make(map[string]*Customer),
		Subscriptions: make(map[string]*Subscription),
		CallLog:       []string{},
	}
}

// CreateCustomer creates a mock gateway customer.
func (m *MockProvider) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateCustomer(%s)", params.Email))

	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, params)
	}

	cust := &Customer{
		ID:    "cust_" + uuid.New().String()[:12],
		Email: params.Email,
		Name:  params.Name,
	}
	m.Customers[cust.ID] = cust
	return cust, nil
}

// CreateSubscription creates a mock gateway subscription.
func (m *MockProvider) CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateSubscription(%s, %s)", params.PlanID, params.CustomerID))

	if m.CreateSubscriptionFunc != nil {
		return m.CreateSubscriptionFunc(ctx, params)
	}

	sub := &Subscription{
		ID:     "sub_" + uuid.New().String()[:12],
		Status: "created",
	}
	m.Subscriptions[sub.ID] = sub
	return sub, nil
}

// VerifyWebhookSignature verifies a mock webhook signature.
// Default behavior delegates to the real HMAC verification so handler tests
// exercise the production digest path.
func (m *MockProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	m.CallLog = append(m.CallLog, "VerifyWebhookSignature")

	if m.VerifyWebhookSignatureFunc != nil {
		return m.VerifyWebhookSignatureFunc(payload, signature, secret)
	}

	return VerifyWebhookSignature(payload, signature, secret)
}
