// Package metrics exposes prometheus collectors for the scheduling jobs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the planner's collectors. A nil *Metrics is valid and
// records nothing, which keeps services usable without a registry.
type Metrics struct {
	occurrencesMaterialized prometheus.Counter
	occurrencesOverdue      prometheus.Counter
	assignmentsCreated      prometheus.Counter
	notifications           *prometheus.CounterVec
	jobRuns                 *prometheus.CounterVec
	jobDuration             *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		occurrencesMaterialized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_occurrences_materialized_total",
			Help: "Occurrences created by the materializer",
		}),
		occurrencesOverdue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_occurrences_overdue_total",
			Help: "Occurrences moved from pending to overdue",
		}),
		assignmentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_rotation_assignments_total",
			Help: "Weekly assignments written by the rotation",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_notifications_total",
			Help: "Notifications handed to the notifier",
		}, []string{"type", "result"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_job_runs_total",
			Help: "Scheduled job runs",
		}, []string{"job", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "planner_job_duration_seconds",
			Help:    "Scheduled job duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.occurrencesMaterialized,
			m.occurrencesOverdue,
			m.assignmentsCreated,
			m.notifications,
			m.jobRuns,
			m.jobDuration,
		)
	}
	return m
}

func (m *Metrics) Materialized(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.occurrencesMaterialized.Add(float64(n))
}

func (m *Metrics) Overdue() {
	if m == nil {
		return
	}
	m.occurrencesOverdue.Inc()
}

func (m *Metrics) Assigned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.assignmentsCreated.Add(float64(n))
}

func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, result(err)).Inc()
}

// JobRun records one finished job run.
func (m *Metrics) JobRun(job string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, result(err)).Inc()
	m.jobDuration.WithLabelValues(job).Observe(seconds)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
