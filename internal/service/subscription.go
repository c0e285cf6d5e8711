package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hallgrim/verdandi/internal/billing"
	"github.com/hallgrim/verdandi/internal/domain"
	"github.com/hallgrim/verdandi/internal/telemetry"
)

// gatewayBillingCycles is the fixed number of billing cycles requested when
// creating a gateway subscription.
const gatewayBillingCycles = 12

// SignupParams is the provisioning request body.
type SignupParams struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"required"`
	PlanID string `json:"planId" validate:"required"`
}

// SignupResult is returned to the caller after successful provisioning.
type SignupResult struct {
	SubscriptionID string `json:"subscriptionId"`
	Status         string `json:"status"`
}

// WebhookEvent is the portion of a gateway event envelope the ingestion path
// acts on.
type WebhookEvent struct {
	// Event is the gateway event type, e.g. "subscription.charged".
	Event string

	// SubscriptionID is the gateway subscription id from the event payload.
	SubscriptionID string

	// CurrentEnd is the subscription's current period end in epoch seconds,
	// 0 when the event omits it.
	CurrentEnd int64
}

// ApplyOutcome describes how a webhook event was handled.
type ApplyOutcome string

const (
	// OutcomeApplied means a state transition was written.
	OutcomeApplied ApplyOutcome = "applied"

	// OutcomeIgnored means the event referenced a subscription we do not
	// hold. Acknowledged so the gateway stops retrying; never an error.
	OutcomeIgnored ApplyOutcome = "ignored"

	// OutcomeUnhandled means the event type carries no state transition.
	OutcomeUnhandled ApplyOutcome = "unhandled"
)

// SubscriptionService provisions subscriptions through the payment gateway and
// applies webhook-driven lifecycle transitions. Status transitions happen only
// here: initial creation via CreateSubscription, lifecycle changes via
// ApplyGatewayEvent.
type SubscriptionService struct {
	users    domain.UserStore
	plans    domain.PlanStore
	subs     domain.SubscriptionStore
	gateway  billing.Provider
	logger   *slog.Logger
	validate *validator.Validate

	// now is swapped in tests to pin the period-end fallback.
	now func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(
	users domain.UserStore,
	plans domain.PlanStore,
	subs domain.SubscriptionStore,
	gateway billing.Provider,
	logger *slog.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		users:    users,
		plans:    plans,
		subs:     subs,
		gateway:  gateway,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// CreateSubscription provisions a subscription: validates the request, creates
// a gateway customer and subscription, upserts the local user by email, and
// records the local subscription as active.
//
// The two gateway calls have no compensating rollback. When the subscription
// create fails after the customer create succeeded, an orphaned gateway
// customer remains; this is logged, not repaired.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, params SignupParams) (*SignupResult, error) {
	const op = "subscription.create"

	if err := s.validate.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, domain.Errorf(domain.EINVALID, op, "invalid request: %s is %s",
				verrs[0].Field(), verrs[0].Tag())
		}
		return nil, domain.Invalid(op, "email, name, and planId are required")
	}

	plan, err := s.plans.GetPlan(ctx, params.PlanID)
	if err != nil {
		s.countSignupFailure(err)
		return nil, err
	}
	if plan.RazorpayPlanID == "" {
		err := domain.NotFound(op, "plan", params.PlanID)
		s.countSignupFailure(err)
		return nil, err
	}

	// One subscription per user, checked by email before touching the gateway.
	existing, err := s.subs.GetSubscriptionByEmail(ctx, params.Email)
	if err != nil && !domain.IsCode(err, domain.ENOTFOUND) {
		return nil, err
	}
	if existing != nil {
		err := domain.Conflict(op, "user already has a subscription")
		s.countSignupFailure(err)
		return nil, err
	}

	customer, err := s.gateway.CreateCustomer(ctx, billing.CreateCustomerParams{
		Email: params.Email,
		Name:  params.Name,
	})
	if err != nil {
		return nil, s.upstream(err, op, "failed to create gateway customer")
	}

	gwSub, err := s.gateway.CreateSubscription(ctx, billing.CreateSubscriptionParams{
		PlanID:     plan.RazorpayPlanID,
		CustomerID: customer.ID,
		TotalCount: gatewayBillingCycles,
		Quantity:   1,
	})
	if err != nil {
		// The gateway customer has already been created and is now orphaned.
		s.logger.Warn("gateway subscription create failed after customer create; gateway customer orphaned",
			"customer_id", customer.ID,
			"plan", plan.RazorpayPlanID,
			"error", err,
		)
		return nil, s.upstream(err, op, "failed to create gateway subscription")
	}

	user, err := s.users.UpsertUser(ctx, domain.UpsertUserParams{
		Email:              params.Email,
		Name:               params.Name,
		RazorpayCustomerID: customer.ID,
	})
	if err != nil {
		return nil, err
	}

	periodEnd := s.periodEnd(gwSub.CurrentEnd)

	sub, err := s.subs.CreateSubscription(ctx, domain.CreateSubscriptionParams{
		UserID:                 user.ID,
		PlanID:                 plan.ID,
		RazorpaySubscriptionID: gwSub.ID,
		Status:                 domain.StatusActive,
		CurrentPeriodEnd:       periodEnd,
	})
	if err != nil {
		// Gateway-side objects exist without a local record; flagged for
		// manual reconciliation rather than repaired in-band.
		s.logger.Error("local subscription write failed after gateway provisioning",
			"gateway_subscription_id", gwSub.ID,
			"customer_id", customer.ID,
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("subscription provisioned",
		"subscription_id", sub.RazorpaySubscriptionID,
		"plan", plan.ID,
		"period_end", sub.CurrentPeriodEnd,
	)

	if telemetry.Business != nil {
		telemetry.Business.SubscriptionsCreated.WithLabelValues(plan.ID).Inc()
	}

	return &SignupResult{
		SubscriptionID: sub.RazorpaySubscriptionID,
		Status:         sub.Status,
	}, nil
}

// ApplyGatewayEvent applies a webhook-driven state transition. Idempotent:
// transitions are set-to-value, so replaying an event converges on the same
// row state.
func (s *SubscriptionService) ApplyGatewayEvent(ctx context.Context, event WebhookEvent) (ApplyOutcome, error) {
	const op = "subscription.apply_event"

	_, err := s.subs.GetSubscriptionByProviderID(ctx, event.SubscriptionID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			// Not one of ours. Acknowledge so the gateway's retry loop stops.
			s.logger.Warn("webhook for unknown subscription, ignoring",
				"subscription_id", event.SubscriptionID,
				"event", event.Event,
			)
			return OutcomeIgnored, nil
		}
		return "", err
	}

	switch event.Event {
	case "subscription.charged":
		var periodEnd *time.Time
		if event.CurrentEnd > 0 {
			t := time.Unix(event.CurrentEnd, 0).UTC()
			periodEnd = &t
		}
		err := s.subs.UpdateSubscriptionStatus(ctx, domain.UpdateSubscriptionStatusParams{
			RazorpaySubscriptionID: event.SubscriptionID,
			Status:                 domain.StatusActive,
			CurrentPeriodEnd:       periodEnd,
		})
		if err != nil {
			return "", err
		}
		s.logger.Info("subscription charged", "subscription_id", event.SubscriptionID)
		return OutcomeApplied, nil

	case "subscription.cancelled":
		err := s.subs.UpdateSubscriptionStatus(ctx, domain.UpdateSubscriptionStatusParams{
			RazorpaySubscriptionID: event.SubscriptionID,
			Status:                 domain.StatusCanceled,
		})
		if err != nil {
			return "", err
		}
		s.logger.Info("subscription canceled", "subscription_id", event.SubscriptionID)
		return OutcomeApplied, nil

	default:
		s.logger.Info("unhandled webhook event", "event", event.Event)
		return OutcomeUnhandled, nil
	}
}

// periodEnd converts the gateway's epoch-seconds period end, falling back to
// one calendar month from now when the gateway omits it.
func (s *SubscriptionService) periodEnd(currentEnd int64) time.Time {
	if currentEnd > 0 {
		return time.Unix(currentEnd, 0).UTC()
	}
	return s.now().UTC().AddDate(0, 1, 0)
}

// upstream converts a gateway error into a domain EUPSTREAM error, carrying
// the gateway HTTP status when the SDK exposed one.
func (s *SubscriptionService) upstream(err error, op, message string) error {
	status := 0
	var gwErr *billing.GatewayError
	if errors.As(err, &gwErr) {
		status = gwErr.StatusCode
	}
	return domain.Upstream(err, op, status, message)
}

func (s *SubscriptionService) countSignupFailure(err error) {
	if telemetry.Business != nil {
		telemetry.Business.SignupFailed.WithLabelValues(domain.ErrorCode(err)).Inc()
	}
}
