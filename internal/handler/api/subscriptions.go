package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hallgrim/verdandi/internal/domain"
	"github.com/hallgrim/verdandi/internal/handler"
	"github.com/hallgrim/verdandi/internal/service"
)

// SubscriptionCreator provisions a subscription from a signup request.
type SubscriptionCreator interface {
	CreateSubscription(ctx context.Context, params service.SignupParams) (*service.SignupResult, error)
}

// CreateSubscriptionHandler handles POST /api/subscriptions.
type CreateSubscriptionHandler struct {
	subscriptions SubscriptionCreator
}

// NewCreateSubscriptionHandler creates a new CreateSubscriptionHandler.
func NewCreateSubscriptionHandler(subscriptions SubscriptionCreator) *CreateSubscriptionHandler {
	return &CreateSubscriptionHandler{subscriptions: subscriptions}
}

func (h *CreateSubscriptionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var params service.SignupParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("subscription.create", "invalid JSON body"))
		return
	}

	result, err := h.subscriptions.CreateSubscription(r.Context(), params)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusCreated, result)
}
