package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the submission pipeline. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// Submissions by outcome: "completed", "validation_failed",
	// "persistence_failed", "invalid_state", "experimental".
	Submissions *prometheus.CounterVec

	// Pipeline stage latencies.
	StageDuration *prometheus.HistogramVec

	// Recovered failures by warning code.
	Warnings *prometheus.CounterVec

	RecordsPersisted prometheus.Counter
	PoolRetirements  prometheus.Counter
	PoolConflicts    prometheus.Counter
}

// New registers the submission metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Total form submissions by outcome",
		}, []string{"outcome"}),

		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intake_stage_duration_seconds",
			Help:    "Duration of submission pipeline stages",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"stage"}),

		Warnings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_submission_warnings_total",
			Help: "Recovered submission failures by code",
		}, []string{"code"}),

		RecordsPersisted: f.NewCounter(prometheus.CounterOpts{
			Name: "intake_records_persisted_total",
			Help: "Records committed by submissions, including post-commit outputs",
		}),

		PoolRetirements: f.NewCounter(prometheus.CounterOpts{
			Name: "intake_pool_retirements_total",
			Help: "Unique ids retired from id pools",
		}),

		PoolConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "intake_pool_retire_conflicts_total",
			Help: "Optimistic conflicts retried while retiring pool ids",
		}),
	}
}

func (m *Metrics) IncrementSubmission(outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(outcome).Inc()
	}
}

// ObserveStage records the duration of a stage started at start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m != nil {
		m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncrementWarning(code string) {
	if m != nil {
		m.Warnings.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) AddRecordsPersisted(n int) {
	if m != nil && n > 0 {
		m.RecordsPersisted.Add(float64(n))
	}
}

func (m *Metrics) IncrementPoolRetirement() {
	if m != nil {
		m.PoolRetirements.Inc()
	}
}

func (m *Metrics) IncrementPoolConflict() {
	if m != nil {
		m.PoolConflicts.Inc()
	}
}
