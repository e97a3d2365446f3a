// Package metrics exposes RTO job and platform call metrics to Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rtoflow/internal/core/apperror"
	"rtoflow/internal/domain/rto"
)

const namespace = "rtoflow"

// Compile-time check that Metrics observes batch jobs.
var _ rto.Observer = (*Metrics)(nil)

// Metrics holds the collectors. Create one per registry.
type Metrics struct {
	JobsTotal         *prometheus.CounterVec
	JobDuration       *prometheus.HistogramVec
	ReturnedUnits     prometheus.Counter
	PlatformCalls     *prometheus.CounterVec
	PlatformCallTime  *prometheus.HistogramVec
	BatchesInProgress prometheus.Gauge
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		JobsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Total number of RTO jobs by terminal status.",
		}, []string{"status"}),

		JobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of one RTO job.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"status"}),

		ReturnedUnits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "returned_units_total",
			Help:      "Total number of units returned and restocked.",
		}),

		PlatformCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_calls_total",
			Help:      "Commerce platform calls by operation and outcome.",
		}, []string{"operation", "outcome"}),

		PlatformCallTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "platform_call_duration_seconds",
			Help:      "Latency of commerce platform calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		BatchesInProgress: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batches_in_progress",
			Help:      "Number of batches currently running.",
		}),
	}
}

// JobFinished implements rto.Observer.
func (m *Metrics) JobFinished(_ context.Context, _ rto.ReturnJob, result rto.JobResult, elapsed time.Duration) {
	status := result.Status.String()
	m.JobsTotal.WithLabelValues(status).Inc()
	m.JobDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if result.Succeeded() && result.Quantity > 0 {
		m.ReturnedUnits.Add(float64(result.Quantity))
	}
}

// ObservePlatformCall matches shopify.CallHook.
func (m *Metrics) ObservePlatformCall(operation string, elapsed time.Duration, err error) {
	m.PlatformCalls.WithLabelValues(operation, outcome(err)).Inc()
	m.PlatformCallTime.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// TrackBatch increments the in-progress gauge; call the returned func when done.
func (m *Metrics) TrackBatch() func() {
	m.BatchesInProgress.Inc()
	return m.BatchesInProgress.Dec
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperror.HasCode(err, apperror.CodeTimeout):
		return "timeout"
	case apperror.HasCode(err, apperror.CodePlatform):
		return "platform_error"
	default:
		return "transport_error"
	}
}
