package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersAccumulate(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Materialized(3)
	m.Materialized(0)
	m.Overdue()
	m.Notification("TASK_OVERDUE", nil)
	m.Notification("TASK_OVERDUE", errors.New("boom"))
	m.JobRun("overdue", 0.2, nil)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.occurrencesMaterialized))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.occurrencesOverdue))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("TASK_OVERDUE", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("TASK_OVERDUE", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("overdue", "ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Materialized(1)
		m.Overdue()
		m.Assigned(2)
		m.Notification("x", nil)
		m.JobRun("x", 1, nil)
	})
}
