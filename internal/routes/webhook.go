package routes

import (
	"github.com/hallgrim/verdandi/internal/router"
)

// RegisterWebhookRoutes registers webhook routes for the payment gateway.
//
// Note: webhook routes have no authentication middleware. The handler itself
// verifies the request signature against the shared webhook secret.
func RegisterWebhookRoutes(r *router.Router, deps WebhookDeps) {
	r.Post("/api/webhooks/razorpay", deps.RazorpayHandler)
}
