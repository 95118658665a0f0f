// Package metrics publishes registry operation and collection metrics to
// Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"donorregistry/pkg/domain"
)

const namespace = "donor_registry"

// Recorder holds the registry's Prometheus collectors. It implements
// core.MetricsRecorder and core.StatsObserver.
type Recorder struct {
	Operations  *prometheus.CounterVec
	Durations   *prometheus.HistogramVec
	Donors      prometheus.Gauge
	BloodDonors prometheus.Gauge
	OrganDonors prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Registry operations by name and result.",
		}, []string{"operation", "result"}),
		Durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of registry operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		Donors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "donors",
			Help:      "Donors in the stored collection at the last render.",
		}),
		BloodDonors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "blood_donors",
			Help:      "Donors listing a blood group at the last render.",
		}),
		OrganDonors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "organ_donors",
			Help:      "Donors listing an organ at the last render.",
		}),
	}
}

// Observe records an operation outcome.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	r.Operations.WithLabelValues(operation, result).Inc()
	r.Durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveStats sets the collection gauges.
func (r *Recorder) ObserveStats(stats domain.Stats) {
	r.Donors.Set(float64(stats.Total))
	r.BloodDonors.Set(float64(stats.BloodDonors))
	r.OrganDonors.Set(float64(stats.OrganDonors))
}
