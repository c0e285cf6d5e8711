package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hallgrim/verdandi/internal/domain"
	"github.com/hallgrim/verdandi/internal/handler"
)

// MetricsReader serves metric snapshots for the dashboard.
type MetricsReader interface {
	Latest(ctx context.Context) (*domain.Metric, error)
	Historical(ctx context.Context, days int) ([]domain.Metric, error)
}

// LatestMetricsHandler handles GET /api/metrics/latest.
type LatestMetricsHandler struct {
	metrics MetricsReader
}

// NewLatestMetricsHandler creates a new LatestMetricsHandler.
func NewLatestMetricsHandler(metrics MetricsReader) *LatestMetricsHandler {
	return &LatestMetricsHandler{metrics: metrics}
}

func (h *LatestMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	metric, err := h.metrics.Latest(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, metric)
}

// HistoricalMetricsHandler handles GET /api/metrics/historical?days=N.
type HistoricalMetricsHandler struct {
	metrics MetricsReader
}

// NewHistoricalMetricsHandler creates a new HistoricalMetricsHandler.
func NewHistoricalMetricsHandler(metrics MetricsReader) *HistoricalMetricsHandler {
	return &HistoricalMetricsHandler{metrics: metrics}
}

func (h *HistoricalMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Bad or absent values fall back to the service's 30-day default.
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	metrics, err := h.metrics.Historical(r.Context(), days)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if metrics == nil {
		metrics = []domain.Metric{}
	}
	handler.JSON(w, http.StatusOK, metrics)
}
