package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	workflows   *prometheus.CounterVec
	stepErrors  *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	persistence *prometheus.GaugeVec
	nobs        *prometheus.GaugeVec
	cache       *prometheus.CounterVec
}

// New registers the recorder's collectors on reg. A nil reg means the
// default Prometheus registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		workflows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volserve_workflows_total",
				Help: "Completed train and forecast workflows by result",
			},
			[]string{"workflow", "result"},
		),
		stepErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volserve_step_errors_total",
				Help: "Workflow failures by step and error kind",
			},
			[]string{"workflow", "step", "kind"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volserve_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
		persistence: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "volserve_model_persistence",
				Help: "sum(alpha)+sum(beta) of the last fitted model per ticker",
			},
			[]string{"ticker"},
		),
		nobs: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "volserve_model_observations",
				Help: "Number of returns used by the last fit per ticker",
			},
			[]string{"ticker"},
		),
		cache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volserve_forecast_cache_total",
				Help: "Forecast cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// RecordWorkflow counts a finished workflow, result is "success" or "failure".
func (r *Recorder) RecordWorkflow(workflow, result string) {
	r.workflows.WithLabelValues(workflow, result).Inc()
}

func (r *Recorder) RecordStepError(workflow, step, kind string) {
	r.stepErrors.WithLabelValues(workflow, step, kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordFit(ticker string, persistence float64, nobs int) {
	r.persistence.WithLabelValues(ticker).Set(persistence)
	r.nobs.WithLabelValues(ticker).Set(float64(nobs))
}

// RecordCache counts forecast cache lookups: hit, miss or error.
func (r *Recorder) RecordCache(result string) {
	r.cache.WithLabelValues(result).Inc()
}

// Nop satisfies the same interface and records nothing.
type Nop struct{}

func (Nop) RecordWorkflow(string, string)          {}
func (Nop) RecordStepError(string, string, string) {}
func (Nop) RecordLatency(string, float64)          {}
func (Nop) RecordFit(string, float64, int)         {}
func (Nop) RecordCache(string)                     {}
