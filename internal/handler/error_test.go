package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hallgrim/verdandi/internal/domain"
)

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusBadRequest},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{domain.EUPSTREAM, http.StatusInternalServerError},
		{"unknown_code", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ErrorCodeToHTTPStatus(tt.code); got != tt.expected {
				t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.expected)
			}
		})
	}
}

func TestErrorResponse_JSON(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "not found error",
			err:            domain.NotFound("plan.get", "plan", "p9"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   domain.ENOTFOUND,
		},
		{
			name:           "validation error",
			err:            domain.Invalid("subscription.create", "email is required"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   domain.EINVALID,
		},
		{
			name:           "conflict error",
			err:            domain.Conflict("subscription.create", "user already has a subscription"),
			expectedStatus: http.StatusConflict,
			expectedCode:   domain.ECONFLICT,
		},
		{
			name:           "signature error maps to 400",
			err:            domain.Unauthorized("webhook.razorpay", "invalid signature"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   domain.EUNAUTHORIZED,
		},
		{
			name:           "upstream error with gateway status passes through",
			err:            domain.Upstream(errors.New("bad plan"), "subscription.create", 400, "failed to create gateway subscription"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   domain.EUPSTREAM,
		},
		{
			name:           "upstream error without gateway status answers 500",
			err:            domain.Upstream(errors.New("timeout"), "subscription.create", 0, "failed to create gateway customer"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   domain.EUPSTREAM,
		},
		{
			name:           "plain error treated as internal",
			err:            errors.New("connection refused"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   domain.EINTERNAL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			ErrorResponse(rec, req, tt.err)

			if rec.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.expectedStatus)
			}

			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want %q", ct, "application/json")
			}

			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}

			if body.Error.Code != tt.expectedCode {
				t.Errorf("error code = %q, want %q", body.Error.Code, tt.expectedCode)
			}
			if body.Error.Message == "" {
				t.Error("error message must not be empty")
			}
		})
	}
}

func TestErrorResponse_HidesInternalDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, errors.New("pq: password authentication failed"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if msg := body["error"]["message"]; msg != "An internal error occurred. Please try again later." {
		t.Errorf("internal error message leaked: %q", msg)
	}
}
