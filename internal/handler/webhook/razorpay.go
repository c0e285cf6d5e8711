package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hallgrim/verdandi/internal/billing"
	"github.com/hallgrim/verdandi/internal/domain"
	"github.com/hallgrim/verdandi/internal/handler"
	"github.com/hallgrim/verdandi/internal/service"
	"github.com/hallgrim/verdandi/internal/telemetry"
)

// SignatureHeader is the header Razorpay signs webhook deliveries with.
const SignatureHeader = "X-Razorpay-Signature"

// EventApplier applies a verified gateway event to local subscription state.
type EventApplier interface {
	ApplyGatewayEvent(ctx context.Context, event service.WebhookEvent) (service.ApplyOutcome, error)
}

// RazorpayConfig contains configuration for Razorpay webhook handling.
type RazorpayConfig struct {
	// WebhookSecret is the shared secret configured on the Razorpay
	// webhook endpoint.
	WebhookSecret string
}

// RazorpayHandler handles Razorpay webhook events.
//
// Delivery is at-least-once: Razorpay retries on any non-200 response, so the
// handler acknowledges everything it can, unknown subscriptions and unhandled
// event types included, and relies on set-to-value transitions for safety
// under duplicate or out-of-order delivery.
type RazorpayHandler struct {
	provider      billing.Provider
	subscriptions EventApplier
	config        RazorpayConfig
	logger        *slog.Logger
}

// NewRazorpayHandler creates a new Razorpay webhook handler.
func NewRazorpayHandler(provider billing.Provider, subscriptions EventApplier, config RazorpayConfig, logger *slog.Logger) *RazorpayHandler {
	return &RazorpayHandler{
		provider:      provider,
		subscriptions: subscriptions,
		config:        config,
		logger:        logger,
	}
}

// eventEnvelope is the subset of the Razorpay event body this system reads.
type eventEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Subscription struct {
			Entity struct {
				ID         string `json:"id"`
				Status     string `json:"status"`
				CurrentEnd int64  `json:"current_end"`
			} `json:"entity"`
		} `json:"subscription"`
	} `json:"payload"`
}

// HandleWebhook processes an incoming Razorpay webhook delivery.
func (h *RazorpayHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// The signature covers the exact raw body bytes; read before any parsing.
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("webhook.razorpay", "error reading request body"))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		h.logger.Warn("webhook rejected: missing signature header")
		handler.ErrorResponse(w, r, domain.Unauthorized("webhook.razorpay", "missing signature"))
		return
	}

	if err := h.provider.VerifyWebhookSignature(payload, signature, h.config.WebhookSecret); err != nil {
		h.logger.Warn("webhook rejected: signature verification failed", "error", err)
		handler.ErrorResponse(w, r, domain.Unauthorized("webhook.razorpay", "invalid signature"))
		return
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		h.logger.Warn("webhook rejected: malformed event body", "error", err)
		handler.ErrorResponse(w, r, domain.Invalid("webhook.razorpay", "invalid JSON"))
		return
	}

	h.logger.Info("webhook received",
		"event", envelope.Event,
		"subscription_id", envelope.Payload.Subscription.Entity.ID,
	)

	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(envelope.Event).Inc()
		defer func() {
			telemetry.Business.WebhookLatency.WithLabelValues(envelope.Event).Observe(time.Since(start).Seconds())
		}()
	}

	outcome, err := h.subscriptions.ApplyGatewayEvent(r.Context(), service.WebhookEvent{
		Event:          envelope.Event,
		SubscriptionID: envelope.Payload.Subscription.Entity.ID,
		CurrentEnd:     envelope.Payload.Subscription.Entity.CurrentEnd,
	})
	if err != nil {
		h.logger.Error("webhook processing failed",
			"event", envelope.Event,
			"subscription_id", envelope.Payload.Subscription.Entity.ID,
			"error", err,
		)
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues(envelope.Event, domain.ErrorCode(err)).Inc()
		}
		handler.ErrorResponse(w, r, domain.Internal(err, "webhook.razorpay", "failed to process webhook event"))
		return
	}

	switch outcome {
	case service.OutcomeIgnored:
		if telemetry.Business != nil {
			telemetry.Business.WebhookIgnored.Inc()
		}
		handler.JSON(w, http.StatusOK, map[string]string{"status": "ok, ignored"})
	default:
		if telemetry.Business != nil && outcome == service.OutcomeApplied {
			telemetry.Business.WebhookProcessed.WithLabelValues(envelope.Event).Inc()
		}
		handler.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
