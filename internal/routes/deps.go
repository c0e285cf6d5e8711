// Package routes wires handlers onto the router. Handlers are constructed in
// cmd/server and injected through the Deps structs so tests can substitute
// doubles.
package routes

import (
	"net/http"

	"github.com/hallgrim/verdandi/internal/handler/api"
)

// APIDeps contains handler dependencies for the dashboard API routes.
type APIDeps struct {
	CreateSubscriptionHandler *api.CreateSubscriptionHandler
	LatestMetricsHandler      *api.LatestMetricsHandler
	HistoricalMetricsHandler  *api.HistoricalMetricsHandler
}

// WebhookDeps contains handler dependencies for webhook routes.
type WebhookDeps struct {
	RazorpayHandler http.HandlerFunc
}
