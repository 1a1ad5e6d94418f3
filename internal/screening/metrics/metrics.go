package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for screening runs.
type Metrics struct {
	// Screening outcomes by recommended status ("invalid" for validation failures)
	Outcome *prometheus.CounterVec

	// Form configuration defects by error code
	ConfigDefects *prometheus.CounterVec

	// Total score of valid submissions
	Score prometheus.Histogram

	// Duration of one Process call
	EvaluateLatency prometheus.Histogram
}

// New registers the screening metrics on reg. A nil reg falls back to the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Outcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobly_screening_outcomes_total",
			Help: "Total screening outcomes by recommended status",
		}, []string{"status"}),

		ConfigDefects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobly_screening_config_defects_total",
			Help: "Screening forms rejected for configuration defects, by code",
		}, []string{"code"}),

		Score: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobly_screening_score",
			Help:    "Total score of valid screening submissions",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobly_screening_evaluate_duration_seconds",
			Help:    "Duration of one screening evaluation",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
	}
}

// IncrementOutcome records a screening outcome.
func (m *Metrics) IncrementOutcome(status string) {
	if m != nil {
		m.Outcome.WithLabelValues(status).Inc()
	}
}

// IncrementConfigDefect records a rejected form.
func (m *Metrics) IncrementConfigDefect(code string) {
	if m != nil {
		m.ConfigDefects.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) ObserveScore(score float64) {
	if m != nil {
		m.Score.Observe(score)
	}
}

func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
