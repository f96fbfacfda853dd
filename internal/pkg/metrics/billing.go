// Package metrics exposes Prometheus instrumentation for entitlement flows.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics counts checkout, verification and lifecycle events.
type BillingMetrics struct {
	checkoutAttempts     *prometheus.CounterVec
	paymentVerifications *prometheus.CounterVec
	transitions          *prometheus.CounterVec
	trialExpirations     prometheus.Counter
	usageRecorded        *prometheus.CounterVec
}

var (
	billingMetricsInstance *BillingMetrics
	billingMetricsOnce     sync.Once
)

// GetBillingMetrics returns the singleton billing metrics instance.
func GetBillingMetrics() *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetricsInstance = newBillingMetrics()
	})
	return billingMetricsInstance
}

func newBillingMetrics() *BillingMetrics {
	m := &BillingMetrics{
		checkoutAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "squadhub",
				Subsystem: "billing",
				Name:      "checkout_attempts_total",
				Help:      "Total checkout attempts by plan",
			},
			[]string{"plan"},
		),
		paymentVerifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "squadhub",
				Subsystem: "billing",
				Name:      "payment_verifications_total",
				Help:      "Total payment verification calls by outcome",
			},
			[]string{"result"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "squadhub",
				Subsystem: "billing",
				Name:      "transitions_total",
				Help:      "Total committed entitlement transitions by target status",
			},
			[]string{"status"},
		),
		trialExpirations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "squadhub",
				Subsystem: "entitlement",
				Name:      "trial_expirations_total",
				Help:      "Total trials rewritten to the free plan after expiry",
			},
		),
		usageRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "squadhub",
				Subsystem: "usage",
				Name:      "recorded_total",
				Help:      "Total recorded usage increments by counter",
			},
			[]string{"counter"},
		),
	}

	prometheus.MustRegister(
		m.checkoutAttempts,
		m.paymentVerifications,
		m.transitions,
		m.trialExpirations,
		m.usageRecorded,
	)

	return m
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func (m *BillingMetrics) RecordCheckoutAttempt(planID string) {
	m.checkoutAttempts.WithLabelValues(orUnknown(planID)).Inc()
}

// RecordVerification records a verification outcome such as "verified",
// "not_pending", "declined" or "error".
func (m *BillingMetrics) RecordVerification(result string) {
	m.paymentVerifications.WithLabelValues(orUnknown(result)).Inc()
}

func (m *BillingMetrics) RecordTransition(status string) {
	m.transitions.WithLabelValues(orUnknown(status)).Inc()
}

func (m *BillingMetrics) RecordTrialExpiration() {
	m.trialExpirations.Inc()
}

func (m *BillingMetrics) RecordUsage(counter string, n int64) {
	if n <= 0 {
		return
	}
	m.usageRecorded.WithLabelValues(orUnknown(counter)).Add(float64(n))
}
