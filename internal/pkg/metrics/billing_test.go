package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGetBillingMetricsSingleton(t *testing.T) {
	assert.Same(t, GetBillingMetrics(), GetBillingMetrics())
}

func TestBillingMetricsCounters(t *testing.T) {
	m := GetBillingMetrics()

	before := testutil.ToFloat64(m.checkoutAttempts.WithLabelValues("pro"))
	m.RecordCheckoutAttempt("pro")
	m.RecordCheckoutAttempt("pro")
	assert.Equal(t, before+2, testutil.ToFloat64(m.checkoutAttempts.WithLabelValues("pro")))

	before = testutil.ToFloat64(m.usageRecorded.WithLabelValues("teams"))
	m.RecordUsage("teams", 3)
	m.RecordUsage("teams", 0)
	assert.Equal(t, before+3, testutil.ToFloat64(m.usageRecorded.WithLabelValues("teams")))

	before = testutil.ToFloat64(m.checkoutAttempts.WithLabelValues("unknown"))
	m.RecordCheckoutAttempt("")
	assert.Equal(t, before+1, testutil.ToFloat64(m.checkoutAttempts.WithLabelValues("unknown")))

	m.RecordVerification("")
	m.RecordTransition("active")
	m.RecordTrialExpiration()
}
