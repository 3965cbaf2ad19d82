package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAssignmentsTotal(t *testing.T) {
	before := testutil.ToFloat64(AssignmentsTotal.WithLabelValues(OutcomePartial))
	AssignmentsTotal.WithLabelValues(OutcomePartial).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(AssignmentsTotal.WithLabelValues(OutcomePartial)))
}

func TestImportRowsTotal(t *testing.T) {
	counter := ImportRowsTotal.WithLabelValues("leads", ResultSkipped)
	before := testutil.ToFloat64(counter)
	counter.Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(counter))
}

func TestRankingHistogramsRegistered(t *testing.T) {
	RankingDuration.Observe(0.01)
	RankedBuyers.Observe(5)
	assert.Equal(t, 1, testutil.CollectAndCount(RankingDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(RankedBuyers))
}
