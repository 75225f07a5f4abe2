package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStep_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(ProbeSteps.WithLabelValues("write", "ok"))
	ObserveStep("write", "ok", 15*time.Millisecond)
	after := testutil.ToFloat64(ProbeSteps.WithLabelValues("write", "ok"))
	assert.Equal(t, before+1, after)
}

func TestObserveRun_SetsGauge(t *testing.T) {
	ObserveRun(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(LastRunHealthy))

	before := testutil.ToFloat64(Runs.WithLabelValues("unhealthy"))
	ObserveRun(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(LastRunHealthy))
	assert.Equal(t, before+1, testutil.ToFloat64(Runs.WithLabelValues("unhealthy")))
}
