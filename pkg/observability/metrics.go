package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ResolutionMetrics records composition resolver activity as Prometheus
// metrics. It implements the resolver's Observer interface and is safe for
// concurrent use; all underlying collectors are.
type ResolutionMetrics struct {
	registry *prometheus.Registry

	resolutionDuration prometheus.Histogram
	resolutionTotal    *prometheus.CounterVec
	serviceDuration    *prometheus.HistogramVec
	serviceTotal       *prometheus.CounterVec
}

// NewResolutionMetrics creates the metric set on a fresh Prometheus registry
// alongside the standard Go runtime and process collectors.
func NewResolutionMetrics(namespace string) *ResolutionMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &ResolutionMetrics{
		registry: registry,
		resolutionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Wall time of a full composition resolution run.",
			Buckets:   prometheus.DefBuckets,
		}),
		resolutionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Composition resolution runs by outcome.",
		}, []string{"status"}),
		serviceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_build_duration_seconds",
			Help:      "Factory execution time per service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		serviceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_builds_total",
			Help:      "Factory invocations by service and outcome.",
		}, []string{"service", "status"}),
	}

	registry.MustRegister(
		m.resolutionDuration,
		m.resolutionTotal,
		m.serviceDuration,
		m.serviceTotal,
	)
	return m
}

// Registry exposes the Prometheus registry backing these metrics, for
// mounting a /metrics endpoint.
func (m *ResolutionMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ResolutionStarted implements the resolver Observer interface.
func (m *ResolutionMetrics) ResolutionStarted(services int) {}

// ServiceStarted implements the resolver Observer interface.
func (m *ResolutionMetrics) ServiceStarted(service string) {}

// ServiceResolved records a successful factory run.
func (m *ResolutionMetrics) ServiceResolved(service string, elapsed time.Duration) {
	m.serviceDuration.WithLabelValues(service).Observe(elapsed.Seconds())
	m.serviceTotal.WithLabelValues(service, "success").Inc()
}

// ServiceFailed records a failed factory run.
func (m *ResolutionMetrics) ServiceFailed(service string, elapsed time.Duration, err error) {
	m.serviceDuration.WithLabelValues(service).Observe(elapsed.Seconds())
	m.serviceTotal.WithLabelValues(service, "failure").Inc()
}

// ResolutionFinished records the outcome of a full resolution run.
func (m *ResolutionMetrics) ResolutionFinished(elapsed time.Duration, err error) {
	m.resolutionDuration.Observe(elapsed.Seconds())
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.resolutionTotal.WithLabelValues(status).Inc()
}
