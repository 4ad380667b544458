// Package telemetry holds the storefront's business-level Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeValid       = "valid"
	OutcomeInvalid     = "invalid"
	OutcomeSuccess     = "success"
	OutcomeRemoved     = "removed"
	OutcomeFailed      = "failed"
	OutcomeUnavailable = "unavailable"
)

// BusinessMetrics holds Prometheus metrics for storefront behaviour.
// A nil *BusinessMetrics is valid and records nothing.
type BusinessMetrics struct {
	// Checkout
	CheckoutValidations *prometheus.CounterVec
	CheckoutFieldFailed *prometheus.CounterVec
	CheckoutSubmitted   *prometheus.CounterVec

	// Cart
	CartActions *prometheus.CounterVec

	// Tooltip
	TooltipLookups *prometheus.CounterVec

	// Notices
	NoticesPosted *prometheus.CounterVec

	// Shop server performance
	ShopLatency *prometheus.HistogramVec
}

// NewBusinessMetrics creates the business metrics and registers them with
// reg (the default registry when nil).
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "airkicks"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	subsystem := "business"

	return &BusinessMetrics{
		// =======================================================================
		// Checkout
		// =======================================================================
		CheckoutValidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_validations_total",
				Help:      "Checkout form validations by outcome",
			},
			[]string{"outcome"}, // outcome: valid, invalid
		),
		CheckoutFieldFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_field_failures_total",
				Help:      "Checkout field rule failures",
			},
			[]string{"field"},
		),
		CheckoutSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_submissions_total",
				Help:      "Validated checkouts forwarded to the shop server",
			},
			[]string{"outcome"}, // outcome: success, failed
		),

		// =======================================================================
		// Cart
		// =======================================================================
		CartActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_actions_total",
				Help:      "Cart mutations by action and outcome",
			},
			[]string{"action", "outcome"}, // action: add, increase, decrease, remove
		),

		// =======================================================================
		// Tooltip
		// =======================================================================
		TooltipLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tooltip_lookups_total",
				Help:      "Product tooltip lookups by outcome",
			},
			[]string{"outcome"}, // outcome: success, unavailable
		),

		// =======================================================================
		// Notices
		// =======================================================================
		NoticesPosted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notices_posted_total",
				Help:      "Transient notices posted by level",
			},
			[]string{"level"},
		),

		// =======================================================================
		// Shop server performance
		// =======================================================================
		ShopLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "shop_call_duration_seconds",
				Help:      "Shop server call duration (separates storefront slowness from shop slowness)",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation", "outcome"},
		),
	}
}

// RecordCheckoutValidation counts one validation and each failing field.
func (m *BusinessMetrics) RecordCheckoutValidation(valid bool, failedFields []string) {
	if m == nil {
		return
	}
	outcome := OutcomeValid
	if !valid {
		outcome = OutcomeInvalid
	}
	m.CheckoutValidations.WithLabelValues(outcome).Inc()
	for _, f := range failedFields {
		m.CheckoutFieldFailed.WithLabelValues(f).Inc()
	}
}

func (m *BusinessMetrics) RecordCheckoutSubmitted(err error) {
	if m == nil {
		return
	}
	m.CheckoutSubmitted.WithLabelValues(outcomeOf(err)).Inc()
}

func (m *BusinessMetrics) RecordCartAction(action, outcome string) {
	if m == nil {
		return
	}
	m.CartActions.WithLabelValues(action, outcome).Inc()
}

func (m *BusinessMetrics) RecordTooltip(outcome string) {
	if m == nil {
		return
	}
	m.TooltipLookups.WithLabelValues(outcome).Inc()
}

func (m *BusinessMetrics) RecordNotice(level string) {
	if m == nil {
		return
	}
	m.NoticesPosted.WithLabelValues(level).Inc()
}

// ObserveShopCall records a shop call's latency. Its signature matches
// shop.Config.Observe.
func (m *BusinessMetrics) ObserveShopCall(op string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.ShopLatency.WithLabelValues(op, outcomeOf(err)).Observe(took.Seconds())
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeSuccess
}
