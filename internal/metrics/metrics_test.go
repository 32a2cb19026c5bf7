package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistered(t *testing.T) {
	t.Parallel()

	// Verify all metrics are non-nil (registered via promauto on package init).
	assert.NotNil(t, CandidatesExtractedTotal)
	assert.NotNil(t, CategoryFailuresTotal)
	assert.NotNil(t, FilteredOutTotal)
	assert.NotNil(t, ScoreDistribution)
	assert.NotNil(t, VerificationFailuresTotal)
	assert.NotNil(t, DuplicatesSkippedTotal)
	assert.NotNil(t, DeliveredTotal)
	assert.NotNil(t, DeliveryFailuresTotal)
	assert.NotNil(t, ArchivedTotal)
	assert.NotNil(t, RunsTotal)
	assert.NotNil(t, RunDuration)
	assert.NotNil(t, LastRunTimestamp)
	assert.NotNil(t, HistorySize)
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(RunsTotal.WithLabelValues("success"))
	RunsTotal.WithLabelValues("success").Inc()
	assert.InDelta(t, before+1, testutil.ToFloat64(RunsTotal.WithLabelValues("success")), 0.001)

	beforeDelivered := testutil.ToFloat64(DeliveredTotal)
	DeliveredTotal.Add(3)
	assert.InDelta(t, beforeDelivered+3, testutil.ToFloat64(DeliveredTotal), 0.001)
}
