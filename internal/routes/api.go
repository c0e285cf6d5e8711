package routes

import (
	"github.com/hallgrim/verdandi/internal/handler/api"
	"github.com/hallgrim/verdandi/internal/router"
)

// RegisterAPIRoutes registers the dashboard API routes.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	r.Get("/api/health", api.Health)

	r.Post("/api/subscriptions", deps.CreateSubscriptionHandler.ServeHTTP)

	r.Get("/api/metrics/latest", deps.LatestMetricsHandler.ServeHTTP)
	r.Get("/api/metrics/historical", deps.HistoricalMetricsHandler.ServeHTTP)
}
