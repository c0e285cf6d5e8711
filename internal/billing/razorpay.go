package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayConfig contains configuration for the Razorpay provider.
type RazorpayConfig struct {
	// KeyID is the Razorpay API key id (rzp_test_... or rzp_live_...).
	KeyID string

	// KeySecret is the Razorpay API key secret.
	KeySecret string

	// WebhookSecret is the shared secret configured on the Razorpay webhook
	// endpoint, used to verify the X-Razorpay-Signature header.
	WebhookSecret string
}

// Validate checks that required configuration is present.
func (c *RazorpayConfig) Validate() error {
	if c.KeyID == "" || c.KeySecret == "" {
		return ErrInvalidCredentials
	}
	if c.WebhookSecret == "" {
		return errors.New("razorpay: webhook secret is required")
	}
	return nil
}

// IsTestMode returns true if using test mode API keys.
func (c *RazorpayConfig) IsTestMode() bool {
	return strings.HasPrefix(c.KeyID, "rzp_test_")
}

// RazorpayProvider implements Provider using the Razorpay Go SDK.
type RazorpayProvider struct {
	client *razorpay.Client
	config RazorpayConfig
}

// Compile-time check that RazorpayProvider implements Provider.
var _ Provider = (*RazorpayProvider)(nil)

// NewRazorpayProvider creates a new Razorpay billing provider.
func NewRazorpayProvider(config RazorpayConfig) (*RazorpayProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &RazorpayProvider{
		client: razorpay.NewClient(config.KeyID, config.KeySecret),
		config: config,
	}, nil
}

// CreateCustomer creates a Razorpay customer.
// fail_existing=0 makes Razorpay return the existing customer on a duplicate
// email instead of erroring, which keeps retried signups tolerable.
func (p *RazorpayProvider) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	// The Razorpay SDK does not accept a context; calls are bounded by the
	// SDK's own HTTP timeout.
	data := map[string]interface{}{
		"name":          params.Name,
		"email":         params.Email,
		"fail_existing": "0",
	}

	body, err := p.client.Customer.Create(data, nil)
	if err != nil {
		return nil, &GatewayError{Op: "customer.create", Message: err.Error(), Err: err}
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, &GatewayError{Op: "customer.create", Message: "response missing customer id"}
	}

	return &Customer{
		ID:    id,
		Email: params.Email,
		Name:  params.Name,
	}, nil
}

// CreateSubscription creates a Razorpay subscription against a gateway plan.
func (p *RazorpayProvider) CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*Subscription, error) {
	data := map[string]interface{}{
		"plan_id":     params.PlanID,
		"customer_id": params.CustomerID,
		"total_count": params.TotalCount,
		"quantity":    params.Quantity,
	}

	body, err := p.client.Subscription.Create(data, nil)
	if err != nil {
		return nil, &GatewayError{Op: "subscription.create", Message: err.Error(), Err: err}
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, &GatewayError{Op: "subscription.create", Message: "response missing subscription id"}
	}

	status, _ := body["status"].(string)

	// current_end arrives as a JSON number (epoch seconds) or null before the
	// first charge.
	var currentEnd int64
	if v, ok := body["current_end"].(float64); ok {
		currentEnd = int64(v)
	}

	return &Subscription{
		ID:         id,
		Status:     status,
		CurrentEnd: currentEnd,
	}, nil
}

// VerifyWebhookSignature verifies the X-Razorpay-Signature header: an
// HMAC-SHA256 hex digest over the exact raw body bytes using the shared
// webhook secret.
func (p *RazorpayProvider) VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	return VerifyWebhookSignature(payload, signature, secret)
}

// VerifyWebhookSignature is the package-level verification used by the
// provider and the webhook handler tests.
func VerifyWebhookSignature(payload []byte, signature string, secret string) error {
	if signature == "" {
		return ErrMissingWebhookSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidWebhookSignature
	}
	return nil
}
