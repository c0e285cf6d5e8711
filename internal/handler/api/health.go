package api

import (
	"net/http"

	"github.com/hallgrim/verdandi/internal/handler"
)

// Health handles GET /api/health.
func Health(w http.ResponseWriter, r *http.Request) {
	handler.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
