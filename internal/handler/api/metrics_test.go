package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hallgrim/verdandi/internal/domain"
)

// mockMetricsReader implements MetricsReader for testing
type mockMetricsReader struct {
	latest         *domain.Metric
	latestErr      error
	historical     []domain.Metric
	historicalErr  error
	historicalDays int
}

func (m *mockMetricsReader) Latest(ctx context.Context) (*domain.Metric, error) {
	return m.latest, m.latestErr
}

func (m *mockMetricsReader) Historical(ctx context.Context, days int) ([]domain.Metric, error) {
	m.historicalDays = days
	return m.historical, m.historicalErr
}

func TestLatestMetricsHandler(t *testing.T) {
	t.Run("returns_latest_metric", func(t *testing.T) {
		reader := &mockMetricsReader{
			latest: &domain.Metric{
				Date:            time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
				MRRCents:        13497,
				ActiveCustomers: 3,
				ChurnRate:       0.2,
			},
		}
		h := NewLatestMetricsHandler(reader)

		req := httptest.NewRequest(http.MethodGet, "/api/metrics/latest", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}

		var body map[string]interface{}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["mrr"].(float64) != 13497 {
			t.Errorf("mrr = %v, want 13497", body["mrr"])
		}
		if body["activeCustomers"].(float64) != 3 {
			t.Errorf("activeCustomers = %v, want 3", body["activeCustomers"])
		}
		if body["churnRate"].(float64) != 0.2 {
			t.Errorf("churnRate = %v, want 0.2", body["churnRate"])
		}
		if _, ok := body["date"]; !ok {
			t.Error("response must include date")
		}
	})

	t.Run("no_metrics_yet_returns_404", func(t *testing.T) {
		reader := &mockMetricsReader{latestErr: domain.NotFound("metric.latest", "metric", "latest")}
		h := NewLatestMetricsHandler(reader)

		req := httptest.NewRequest(http.MethodGet, "/api/metrics/latest", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rr.Code)
		}
	})
}

func TestHistoricalMetricsHandler(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		expectedDays int
	}{
		{name: "explicit_days", query: "?days=7", expectedDays: 7},
		{name: "absent_days_passes_zero", query: "", expectedDays: 0},
		{name: "malformed_days_passes_zero", query: "?days=abc", expectedDays: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &mockMetricsReader{historical: []domain.Metric{}}
			h := NewHistoricalMetricsHandler(reader)

			req := httptest.NewRequest(http.MethodGet, "/api/metrics/historical"+tt.query, nil)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			if reader.historicalDays != tt.expectedDays {
				t.Errorf("days passed to service = %d, want %d", reader.historicalDays, tt.expectedDays)
			}
		})
	}

	t.Run("empty_history_is_an_empty_array", func(t *testing.T) {
		reader := &mockMetricsReader{historical: nil}
		h := NewHistoricalMetricsHandler(reader)

		req := httptest.NewRequest(http.MethodGet, "/api/metrics/historical", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if got := rr.Body.String(); got != "[]\n" {
			t.Errorf("body = %q, want empty JSON array", got)
		}
	})

	t.Run("returns_rows_in_order", func(t *testing.T) {
		reader := &mockMetricsReader{historical: []domain.Metric{
			{Date: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), MRRCents: 100},
			{Date: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), MRRCents: 200},
		}}
		h := NewHistoricalMetricsHandler(reader)

		req := httptest.NewRequest(http.MethodGet, "/api/metrics/historical?days=2", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		var body []map[string]interface{}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if len(body) != 2 {
			t.Fatalf("len = %d, want 2", len(body))
		}
		if body[0]["mrr"].(float64) != 100 || body[1]["mrr"].(float64) != 200 {
			t.Errorf("rows out of order: %v", body)
		}
	})
}
