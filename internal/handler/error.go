package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hallgrim/verdandi/internal/domain"
)

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
// EUNAUTHORIZED is a webhook signature failure and answers 400: the gateway
// treats non-2xx uniformly and there is no authentication scheme to challenge.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusBadRequest
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EINTERNAL, domain.EUPSTREAM:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse writes a domain error as a JSON error body:
//
//	{"error": {"code": "...", "message": "..."}}
//
// Upstream gateway errors pass their HTTP status through when the SDK exposed
// one; otherwise they answer 500. Internal details are logged server-side and
// never reach the caller.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	if code == domain.EUPSTREAM {
		if upstreamStatus := domain.ErrorStatus(err); upstreamStatus > 0 {
			status = upstreamStatus
		}
	}

	if status >= http.StatusInternalServerError {
		slog.Default().Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", code,
			"error", err,
		)
	}

	JSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": domain.ErrorMessage(err),
		},
	})
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
