package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
type BusinessMetrics struct {
	// Provisioning
	SubscriptionsCreated *prometheus.CounterVec
	SignupFailed         *prometheus.CounterVec

	// Webhooks
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookIgnored   prometheus.Counter
	WebhookFailed    *prometheus.CounterVec
	WebhookLatency   *prometheus.HistogramVec

	// Scheduled jobs
	JobRuns     *prometheus.CounterVec
	JobFailures *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec

	// Aggregates, refreshed by the daily job
	MRRCents        prometheus.Gauge
	ActiveCustomers prometheus.Gauge
}

// NewBusinessMetrics creates and registers all business metrics.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "verdandi"
	}

	subsystem := "business"

	return &BusinessMetrics{
		SubscriptionsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "subscriptions_created_total",
			Help:      "Subscriptions provisioned through the gateway",
		}, []string{"plan"}),

		SignupFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "signup_failed_total",
			Help:      "Failed provisioning attempts by error code",
		}, []string{"code"}),

		WebhookReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_received_total",
			Help:      "Webhook events received by type",
		}, []string{"event"}),

		WebhookProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_processed_total",
			Help:      "Webhook events that resulted in a state transition",
		}, []string{"event"}),

		WebhookIgnored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_ignored_total",
			Help:      "Webhook events acknowledged for subscriptions we do not hold",
		}),

		WebhookFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_failed_total",
			Help:      "Webhook events that failed processing",
		}, []string{"event", "reason"}),

		WebhookLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_duration_seconds",
			Help:      "Webhook processing time by event type",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event"}),

		JobRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "job_runs_total",
			Help:      "Scheduled job executions",
		}, []string{"job"}),

		JobFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "job_failures_total",
			Help:      "Scheduled job executions that returned an error",
		}, []string{"job"}),

		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "job_duration_seconds",
			Help:      "Scheduled job execution time",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 60},
		}, []string{"job"}),

		MRRCents: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "mrr_cents",
			Help:      "Monthly recurring revenue from the latest daily snapshot",
		}),

		ActiveCustomers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_customers",
			Help:      "Active customer count from the latest daily snapshot",
		}),
	}
}

// Business is the global business metrics instance.
// Nil when InitBusinessMetrics has not been called; callers must nil-check.
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance.
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}
