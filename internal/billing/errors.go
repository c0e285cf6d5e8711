package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when gateway API credentials are missing.
	ErrInvalidCredentials = errors.New("billing: invalid or missing API credentials")

	// ErrInvalidWebhookSignature is returned when webhook signature verification fails.
	ErrInvalidWebhookSignature = errors.New("billing: invalid webhook signature")

	// ErrMissingWebhookSignature is returned when the signature header is absent.
	ErrMissingWebhookSignature = errors.New("billing: missing webhook signature")
)

// GatewayError wraps a gateway API error with additional context.
type GatewayError struct {
	// Op is the gateway call that failed (e.g., "customer.create").
	Op string

	// Message is a human-readable error message.
	Message string

	// StatusCode is the HTTP status returned by the gateway, 0 when unknown.
	StatusCode int

	// Err is the original error from the gateway SDK.
	Err error
}

func (e *GatewayError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("razorpay: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("razorpay: %s", e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
